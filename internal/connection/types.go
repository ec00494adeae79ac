package connection

import (
	"time"

	"git-integration/internal/model"
)

type BeginAuthorizationInput struct {
	ProjectID   string
	Provider    model.Provider
	RedirectURL string
	// Repository optionally pre-selects the repository to bind on callback.
	Repository string
}

type BeginAuthorizationOutput struct {
	AuthorizationURL string
	State            string
	ExpiresAt        time.Time
}

type CompleteAuthorizationInput struct {
	Code  string
	State string
}

// CreateInput creates a connection from an already issued token, such as a
// personal access token, bypassing the OAuth dance.
type CreateInput struct {
	ProjectID          string
	Provider           model.Provider
	RepositoryFullName string
	AccessToken        string
	RefreshToken       string
	TokenExpiry        time.Time
	WebhookEvents      []model.EventKind
}

// UpdateInput changes the mutable, non-token attributes. Nil fields are left untouched.
type UpdateInput struct {
	ID                 string
	RepositoryFullName *string
	DefaultBranch      *string
	WebhookEvents      []model.EventKind
	Active             *bool
}

type UpdateSyncStateInput struct {
	ID     string
	Status model.SyncStatus
	// Cursor is left unchanged when empty.
	Cursor    string
	SyncedAt  time.Time
	LastError string
}
