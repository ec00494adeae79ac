package repository

import (
	"context"
	"time"

	"git-integration/internal/model"
)

// Repository stores webhook events. Rows are never deleted; only the
// processor changes their status.
type Repository interface {
	// Create inserts a PENDING event. When the connection already holds an
	// event with the same provider event id it returns that event and ErrDuplicate.
	Create(ctx context.Context, e model.WebhookEvent) (model.WebhookEvent, error)
	Detail(ctx context.Context, id string) (model.WebhookEvent, error)
	List(ctx context.Context, opt ListOptions) ([]model.WebhookEvent, error)

	// Head returns the oldest non-terminal event of a connection, or ErrNotFound.
	Head(ctx context.Context, connectionID string) (model.WebhookEvent, error)
	// Claim moves a PENDING event to PROCESSING, provided no sibling of the
	// same connection is PROCESSING. Returns ErrNotClaimable otherwise.
	Claim(ctx context.Context, id string, at time.Time) (model.WebhookEvent, error)
	// Transition applies opt if the event is still in opt.From.
	Transition(ctx context.Context, opt TransitionOptions) error
	// DueConnections lists connections whose head event is PENDING and due at now.
	DueConnections(ctx context.Context, now time.Time, limit int) ([]string, error)
	// RequeueProcessing returns abandoned PROCESSING events to PENDING.
	RequeueProcessing(ctx context.Context, at time.Time) (int, error)
}
