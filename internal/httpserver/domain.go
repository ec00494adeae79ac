package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"

	connectionHTTP "git-integration/internal/connection/delivery/http"
	syncHTTP "git-integration/internal/sync/delivery/http"
	webhookHTTP "git-integration/internal/webhook/delivery/http"
)

// setupConnectionDomain registers OAuth and connection management routes.
func (srv HTTPServer) setupConnectionDomain(ctx context.Context, api *gin.RouterGroup) {
	h := connectionHTTP.New(srv.l, srv.connectionUC)
	connectionHTTP.RegisterRoutes(api, h, srv.mw)
	srv.l.Infof(ctx, "Connection domain registered")
}

// setupWebhookDomain registers the public delivery endpoint and the event audit trail.
func (srv HTTPServer) setupWebhookDomain(ctx context.Context, api *gin.RouterGroup) {
	h := webhookHTTP.New(srv.l, srv.webhookUC, srv.webhookSec)
	webhookHTTP.RegisterRoutes(srv.gin, api, h, srv.mw)
	srv.l.Infof(ctx, "Webhook domain registered at POST /webhook/:provider/:connectionID")
}

// setupSyncDomain registers manual sync and synced data routes.
func (srv HTTPServer) setupSyncDomain(ctx context.Context, api *gin.RouterGroup) {
	h := syncHTTP.New(srv.l, srv.syncUC)
	syncHTTP.RegisterRoutes(api, h, srv.mw)
	srv.l.Infof(ctx, "Sync domain registered")
}
