package model

import (
	"strings"
	"time"
)

// SyncStatus is the Sync Engine's view of a connection.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

// EventKind is the provider-neutral classification of a webhook event.
type EventKind string

const (
	EventKindPush        EventKind = "push"
	EventKindPullRequest EventKind = "pull_request"
	EventKindPing        EventKind = "ping"
	EventKindUnknown     EventKind = "unknown"
)

// DefaultWebhookEvents is what a connection subscribes to when nothing else is configured.
var DefaultWebhookEvents = []EventKind{EventKindPush, EventKindPullRequest, EventKindPing}

// GitConnection links a project to one repository on one provider.
type GitConnection struct {
	ID        string
	UserID    string
	ProjectID string
	Provider  Provider

	RepositoryName     string
	RepositoryFullName string
	RepositoryURL      string
	DefaultBranch      string

	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	// TokenVersion increments on every token write and guards refreshes.
	TokenVersion int64

	WebhookID     string
	WebhookSecret string
	WebhookEvents []EventKind

	Active         bool
	LastSyncAt     time.Time
	LastSyncCursor string
	SyncStatus     SyncStatus
	LastSyncError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGitConnection sets creation defaults. The caller assigns the ID.
func NewGitConnection(userID, projectID string, provider Provider, now time.Time) GitConnection {
	return GitConnection{
		UserID:        userID,
		ProjectID:     projectID,
		Provider:      provider,
		Active:        true,
		SyncStatus:    SyncStatusIdle,
		WebhookEvents: append([]EventKind(nil), DefaultWebhookEvents...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasRepository reports whether a repository has been bound to the connection.
func (c GitConnection) HasRepository() bool {
	return strings.TrimSpace(c.RepositoryFullName) != ""
}

// TokenExpiresWithin reports whether the access token expires before now+margin.
// A zero expiry means the provider issued a non-expiring token.
func (c GitConnection) TokenExpiresWithin(now time.Time, margin time.Duration) bool {
	if c.TokenExpiry.IsZero() {
		return false
	}
	return !c.TokenExpiry.After(now.Add(margin))
}

// AcceptsEvent reports whether kind is in the connection's subscription.
func (c GitConnection) AcceptsEvent(kind EventKind) bool {
	if kind == EventKindUnknown || kind == "" {
		return false
	}
	events := c.WebhookEvents
	if len(events) == 0 {
		events = DefaultWebhookEvents
	}
	for _, e := range events {
		if e == kind {
			return true
		}
	}
	return false
}

// Branch returns the branch to sync when the caller did not name one.
func (c GitConnection) Branch(branch string) string {
	if strings.TrimSpace(branch) != "" {
		return branch
	}
	if c.DefaultBranch != "" {
		return c.DefaultBranch
	}
	return "main"
}
