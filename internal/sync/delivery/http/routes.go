package http

import (
	"github.com/gin-gonic/gin"

	"git-integration/internal/middleware"
)

// RegisterRoutes maps manual sync and the read side of synced data.
func RegisterRoutes(rg *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	conns := rg.Group("/connections/:id", mw.Auth())
	{
		conns.POST("/sync", h.Trigger)
		conns.GET("/commits", h.ListCommits)
		conns.GET("/commits/:sha", h.GetCommit)
		conns.GET("/pull-requests", h.ListPullRequests)
		conns.GET("/pull-requests/:number", h.GetPullRequest)
	}
}
