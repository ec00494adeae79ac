package repository

import (
	"time"

	"git-integration/internal/model"
)

type IdentityOptions struct {
	ProjectID          string
	Provider           model.Provider
	RepositoryFullName string
}

// UpdateOptions replaces the descriptive fields of a connection. Token
// fields are excluded; they are only written through UpdateTokens.
type UpdateOptions struct {
	ID                 string
	UserID             string
	RepositoryName     string
	RepositoryFullName string
	RepositoryURL      string
	DefaultBranch      string
	WebhookID          string
	WebhookSecret      string
	WebhookEvents      []model.EventKind
	Active             bool
	UpdatedAt          time.Time
}

type UpdateTokensOptions struct {
	ID              string
	ExpectedVersion int64
	AccessToken     string
	RefreshToken    string
	TokenExpiry     time.Time
	UpdatedAt       time.Time
}

type UpdateSyncStateOptions struct {
	ID        string
	Status    model.SyncStatus
	Cursor    string
	SyncedAt  time.Time
	LastError string
	UpdatedAt time.Time
}
