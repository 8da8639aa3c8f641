package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/models"
)

type memoryBroker struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	subs   map[string]map[chan models.AuthEvent]struct{}
	closed bool
}

func NewMemoryBroker(logger zerolog.Logger) Broker {
	return &memoryBroker{
		logger: logger,
		subs:   make(map[string]map[chan models.AuthEvent]struct{}),
	}
}

func (b *memoryBroker) Publish(_ context.Context, event models.AuthEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	delivered := 0
	for ch := range b.subs[event.UserID] {
		select {
		case ch <- event:
			delivered++
		default:
			b.logger.Warn().
				Str("user_id", event.UserID).
				Str("type", string(event.Type)).
				Msg("subscriber buffer full, dropping event")
		}
	}
	b.logger.Debug().
		Str("user_id", event.UserID).
		Str("type", string(event.Type)).
		Int("delivered", delivered).
		Msg("published auth event")
	return nil
}

func (b *memoryBroker) Subscribe(ctx context.Context, userID string) (<-chan models.AuthEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	ch := make(chan models.AuthEvent, subscriberBuffer)
	userSubs, ok := b.subs[userID]
	if !ok {
		userSubs = make(map[chan models.AuthEvent]struct{})
		b.subs[userID] = userSubs
	}
	userSubs[ch] = struct{}{}
	b.logger.Debug().
		Str("user_id", userID).
		Int("subscribers", len(userSubs)).
		Msg("subscribed to auth events")

	go func() {
		<-ctx.Done()
		b.unsubscribe(userID, ch)
	}()
	return ch, nil
}

func (b *memoryBroker) unsubscribe(userID string, ch chan models.AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userSubs, ok := b.subs[userID]
	if !ok {
		return
	}
	if _, ok = userSubs[ch]; !ok {
		// Already closed by Close.
		return
	}
	delete(userSubs, ch)
	close(ch)
	if len(userSubs) == 0 {
		delete(b.subs, userID)
	}
	b.logger.Debug().
		Str("user_id", userID).
		Msg("unsubscribed from auth events")
}

func (b *memoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for userID, userSubs := range b.subs {
		for ch := range userSubs {
			close(ch)
		}
		delete(b.subs, userID)
	}
	return nil
}
