package http

import (
	"git-integration/internal/webhook"
	pkgLog "git-integration/pkg/log"
)

type handler struct {
	l     pkgLog.Logger
	uc    webhook.UseCase
	guard *ingressGuard
}

// New creates the webhook HTTP handler.
func New(l pkgLog.Logger, uc webhook.UseCase, cfg SecurityConfig) *handler {
	return &handler{l: l, uc: uc, guard: newIngressGuard(cfg)}
}
