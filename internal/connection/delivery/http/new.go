package http

import (
	"git-integration/internal/connection"
	pkgLog "git-integration/pkg/log"
)

type handler struct {
	l  pkgLog.Logger
	uc connection.UseCase
}

// New creates the connection HTTP handler.
func New(l pkgLog.Logger, uc connection.UseCase) *handler {
	return &handler{l: l, uc: uc}
}
