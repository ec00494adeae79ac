package http

import (
	"git-integration/internal/sync"
	pkgLog "git-integration/pkg/log"
)

type handler struct {
	l  pkgLog.Logger
	uc sync.UseCase
}

// New creates the sync HTTP handler.
func New(l pkgLog.Logger, uc sync.UseCase) *handler {
	return &handler{l: l, uc: uc}
}
