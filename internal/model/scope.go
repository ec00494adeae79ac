package model

// Scope carries the caller identity resolved by the auth middleware.
type Scope struct {
	UserID string
}
