package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"git-integration/internal/model"
	"git-integration/pkg/response"
)

const (
	HeaderInternalKey = "X-Internal-Key"
	HeaderUserID      = "X-User-ID"

	scopeKey = "scope"
)

// Auth admits calls from trusted collaborators carrying the shared internal
// key. The acting user is taken from X-User-ID.
func (m Middleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.internalKey != "" {
			got := c.GetHeader(HeaderInternalKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(m.internalKey)) != 1 {
				m.l.Warnf(c.Request.Context(), "middleware.Auth: rejected %s %s from %s", c.Request.Method, c.FullPath(), c.ClientIP())
				response.Unauthorized(c)
				c.Abort()
				return
			}
		}

		c.Set(scopeKey, model.Scope{UserID: c.GetHeader(HeaderUserID)})
		c.Next()
	}
}

// GetScope returns the scope stored by Auth, or the zero Scope.
func GetScope(c *gin.Context) model.Scope {
	v, ok := c.Get(scopeKey)
	if !ok {
		return model.Scope{}
	}
	sc, _ := v.(model.Scope)
	return sc
}
