package http

import (
	"github.com/gin-gonic/gin"

	"git-integration/internal/middleware"
)

// RegisterRoutes maps the public delivery endpoint onto root and the event
// audit listing onto api. Deliveries authenticate by signature.
func RegisterRoutes(root *gin.Engine, api *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	root.POST("/webhook/:provider/:connectionID", h.Receive)

	api.GET("/connections/:id/webhook-events", mw.Auth(), h.ListEvents)
}
