package repository

import (
	"time"

	"git-integration/internal/model"
)

type ListOptions struct {
	ConnectionID string
	// Status filters when non-empty.
	Status model.WebhookStatus
	Limit  int
	Offset int
}

// TransitionOptions describes one status change and the bookkeeping written with it.
type TransitionOptions struct {
	ID   string
	From model.WebhookStatus
	To   model.WebhookStatus

	ErrorMessage  string
	RetryCount    int
	LastRetryAt   time.Time
	NextAttemptAt time.Time
	ProcessedAt   time.Time
	DurationMs    int64
}
