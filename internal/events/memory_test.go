package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/todos/internal/models"
)

func receive(t *testing.T, ch <-chan models.AuthEvent) models.AuthEvent {
	t.Helper()

	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.AuthEvent{}
}

func TestMemoryBroker_DeliversToUserSubscribersOnly(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker(zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	bob, err := broker.Subscribe(ctx, "bob")
	require.NoError(t, err)

	event := models.AuthEvent{
		Type:       models.AuthEventSignedIn,
		UserID:     "alice",
		SessionID:  "s1",
		OccurredAt: time.Now(),
	}
	require.NoError(t, broker.Publish(ctx, event))

	got := receive(t, alice)
	assert.Equal(t, event.Type, got.Type)
	assert.Equal(t, "s1", got.SessionID)

	select {
	case e := <-bob:
		t.Fatalf("unexpected event for bob: %+v", e)
	default:
	}
}

func TestMemoryBroker_FanOut(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker(zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	second, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, models.AuthEvent{
		Type:   models.AuthEventSignedOut,
		UserID: "alice",
	}))

	assert.Equal(t, models.AuthEventSignedOut, receive(t, first).Type)
	assert.Equal(t, models.AuthEventSignedOut, receive(t, second).Type)
}

func TestMemoryBroker_ContextCancelClosesChannel(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker(zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker(zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = broker.Publish(ctx, models.AuthEvent{
				Type:   models.AuthEventTokenRefreshed,
				UserID: "alice",
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryBroker_Closed(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, broker.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err = broker.Subscribe(ctx, "alice")
	assert.ErrorIs(t, err, ErrBrokerClosed)
	assert.ErrorIs(t, broker.Publish(ctx, models.AuthEvent{UserID: "alice"}), ErrBrokerClosed)

	// Cancelling after Close must not double close the channel.
	cancel()
	time.Sleep(10 * time.Millisecond)
}
