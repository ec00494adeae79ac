// Package publisher delivers domain events to downstream collaborators.
package publisher

import (
	"context"
	"time"
)

// Event is a transport-neutral domain event.
type Event struct {
	Type    string
	Subject string
	Time    time.Time
	Data    any
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
