package repository

import (
	"context"

	"git-integration/internal/model"
)

// Repository persists GitConnection records.
type Repository interface {
	Create(ctx context.Context, conn model.GitConnection) (model.GitConnection, error)
	Detail(ctx context.Context, id string) (model.GitConnection, error)
	// FindByIdentity returns a non-deleted connection keyed by project, provider and repository.
	FindByIdentity(ctx context.Context, opt IdentityOptions) (model.GitConnection, error)
	ListByProject(ctx context.Context, projectID string) ([]model.GitConnection, error)
	Update(ctx context.Context, opt UpdateOptions) (model.GitConnection, error)
	// UpdateTokens writes new tokens only if the stored version still equals
	// opt.ExpectedVersion and increments the version. Returns ErrVersionConflict otherwise.
	UpdateTokens(ctx context.Context, opt UpdateTokensOptions) (model.GitConnection, error)
	UpdateSyncState(ctx context.Context, opt UpdateSyncStateOptions) error
	SetActive(ctx context.Context, id string, active bool) error
	// Delete soft-deletes; the row is kept for the webhook audit trail.
	Delete(ctx context.Context, id string) error
}

// StateStore holds short-lived OAuth states.
type StateStore interface {
	Save(ctx context.Context, state model.OAuthState) error
	// Consume atomically returns and removes the state. ok is false when the
	// token is unknown, already used or evicted. The caller checks ExpiresAt,
	// since eviction runs on the store's clock and is only approximate.
	Consume(ctx context.Context, token string) (model.OAuthState, bool)
}
