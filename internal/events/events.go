package events

import (
	"context"
	"errors"

	"github.com/adanyl0v/todos/internal/models"
)

// subscriberBuffer is the number of events kept for a subscriber
// that is not reading. Further events are dropped for it.
const subscriberBuffer = 16

var ErrBrokerClosed = errors.New("broker closed")

// Broker fans auth events out to the subscribers of a user.
type Broker interface {
	// Publish delivers the event to every current subscriber of
	// event.UserID. It never blocks on a slow subscriber.
	Publish(ctx context.Context, event models.AuthEvent) error

	// Subscribe returns a channel of the user's events. The channel
	// is closed when ctx is done or the broker is closed.
	Subscribe(ctx context.Context, userID string) (<-chan models.AuthEvent, error)

	Close() error
}
