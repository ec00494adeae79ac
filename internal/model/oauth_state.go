package model

import "time"

// OAuthState is the short-lived CSRF token issued when an authorization begins.
type OAuthState struct {
	Token       string
	UserID      string
	ProjectID   string
	Provider    Provider
	RedirectURL string
	// Repository is optional; when set the callback binds it to the connection.
	Repository string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the state can no longer be used.
func (s OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
