package http

import (
	"github.com/gin-gonic/gin"

	"git-integration/internal/middleware"
)

// RegisterRoutes maps connection endpoints. The OAuth callback is reached by
// the user's browser, so it is authenticated by the state token instead of the internal key.
func RegisterRoutes(rg *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	rg.GET("/oauth/callback", h.Callback)

	conns := rg.Group("/connections", mw.Auth())
	{
		conns.POST("/authorize", h.Authorize)
		conns.POST("", h.Create)
		conns.GET("/:id", h.Detail)
		conns.PUT("/:id", h.Update)
		conns.DELETE("/:id", h.Delete)
		conns.GET("/:id/repositories", h.ListRepositories)
		conns.GET("/:id/branches", h.ListBranches)
	}

	rg.GET("/projects/:projectID/connections", mw.Auth(), h.ListByProject)
}
