package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"git-integration/pkg/log"
)

func newEngine(mw Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw.RequestID())
	r.GET("/x", mw.Auth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetScope(c).UserID+"|"+log.RequestID(c.Request.Context()))
	})
	return r
}

func TestAuth(t *testing.T) {
	r := newEngine(New(log.NewNop(), "k3y"))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"valid key", "k3y", http.StatusOK},
		{"wrong key", "k3x", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.key != "" {
				req.Header.Set(HeaderInternalKey, tt.key)
			}
			req.Header.Set(HeaderUserID, "u1")
			req.Header.Set(HeaderRequestID, "rid")
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && w.Body.String() != "u1|rid" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestRequestID_Generated(t *testing.T) {
	r := newEngine(New(log.NewNop(), ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Header().Get(HeaderRequestID) == "" {
		t.Error("expected a generated request id header")
	}
}
