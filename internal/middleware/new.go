package middleware

import (
	"git-integration/pkg/log"
)

type Middleware struct {
	l           log.Logger
	internalKey string
}

// New builds the middleware set. An empty internalKey disables the Auth check,
// which is only sensible in development.
func New(l log.Logger, internalKey string) Middleware {
	return Middleware{
		l:           l,
		internalKey: internalKey,
	}
}
