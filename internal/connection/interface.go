package connection

import (
	"context"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

// UseCase is the OAuth Connection Manager plus the connection lifecycle.
type UseCase interface {
	// BeginAuthorization issues a single-use state and returns the provider's consent URL.
	BeginAuthorization(ctx context.Context, sc model.Scope, input BeginAuthorizationInput) (BeginAuthorizationOutput, error)
	// CompleteAuthorization consumes the state, exchanges the code and persists the connection.
	CompleteAuthorization(ctx context.Context, input CompleteAuthorizationInput) (model.GitConnection, error)
	// RefreshIfNeeded refreshes the access token when it expires within the safety margin.
	RefreshIfNeeded(ctx context.Context, conn model.GitConnection) (model.GitConnection, error)

	Create(ctx context.Context, sc model.Scope, input CreateInput) (model.GitConnection, error)
	Update(ctx context.Context, sc model.Scope, input UpdateInput) (model.GitConnection, error)
	Detail(ctx context.Context, sc model.Scope, id string) (model.GitConnection, error)
	ListByProject(ctx context.Context, sc model.Scope, projectID string) ([]model.GitConnection, error)
	Delete(ctx context.Context, sc model.Scope, id string) error

	ListRepositories(ctx context.Context, sc model.Scope, id string, page int) (provider.RepositoryPage, error)
	ListBranches(ctx context.Context, sc model.Scope, id string) ([]provider.Branch, error)

	// Get loads a connection without ownership checks, for background workers.
	Get(ctx context.Context, id string) (model.GitConnection, error)
	// UpdateSyncState records the Sync Engine's progress on a connection.
	UpdateSyncState(ctx context.Context, input UpdateSyncStateInput) error
}
