package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/models"
)

const redisChannelPrefix = "todos:auth_events:"

type redisBroker struct {
	logger    zerolog.Logger
	client    *redis.Client
	done      chan struct{}
	closeOnce sync.Once
}

// NewRedisBroker publishes events on a per-user Redis channel so that
// every server instance can deliver them to its own subscribers.
func NewRedisBroker(logger zerolog.Logger, client *redis.Client) Broker {
	return &redisBroker{
		logger: logger,
		client: client,
		done:   make(chan struct{}),
	}
}

func redisChannel(userID string) string {
	return redisChannelPrefix + userID
}

func (b *redisBroker) Publish(ctx context.Context, event models.AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.client.Publish(ctx, redisChannel(event.UserID), payload).Result()
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("user_id", event.UserID).
			Msg("failed to publish auth event")
		return err
	}
	b.logger.Debug().
		Str("user_id", event.UserID).
		Str("type", string(event.Type)).
		Int64("receivers", receivers).
		Msg("published auth event")
	return nil
}

func (b *redisBroker) Subscribe(ctx context.Context, userID string) (<-chan models.AuthEvent, error) {
	sub := b.client.Subscribe(ctx, redisChannel(userID))
	// Wait for the subscription confirmation so that no event
	// published right after Subscribe returns is missed.
	_, err := sub.Receive(ctx)
	if err != nil {
		_ = sub.Close()
		b.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to subscribe to auth events")
		return nil, err
	}

	out := make(chan models.AuthEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event models.AuthEvent
				err := json.Unmarshal([]byte(msg.Payload), &event)
				if err != nil {
					b.logger.Error().
						Err(err).
						Str("channel", msg.Channel).
						Msg("failed to unmarshal auth event")
					continue
				}

				select {
				case out <- event:
				default:
					b.logger.Warn().
						Str("user_id", userID).
						Msg("subscriber buffer full, dropping event")
				}
			}
		}
	}()
	return out, nil
}

func (b *redisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.client.Close()
	})
	return err
}
