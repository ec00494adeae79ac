package webhook

import (
	"context"

	"git-integration/internal/model"
)

// UseCase is the Webhook Ingestor.
type UseCase interface {
	// Receive verifies, deduplicates and persists one delivery. Business
	// processing happens asynchronously after it returns.
	Receive(ctx context.Context, input ReceiveInput) (ReceiveOutput, error)
	// ListEvents returns the stored deliveries of a connection, newest first.
	ListEvents(ctx context.Context, sc model.Scope, input ListEventsInput) ([]model.WebhookEvent, error)
}

// Notifier is told when a connection has new work. Signal must not block.
type Notifier interface {
	Signal(connectionID string)
}
