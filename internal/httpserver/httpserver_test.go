package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"git-integration/internal/connection"
	gitsync "git-integration/internal/sync"
	"git-integration/internal/webhook"
	"git-integration/pkg/log"
)

type nopConnections struct{ connection.UseCase }
type nopWebhooks struct{ webhook.UseCase }
type nopSync struct{ gitsync.UseCase }

func newTestServer(t *testing.T, internalKey string) *HTTPServer {
	t.Helper()
	srv, err := New(log.NewNop(), Config{
		Port:         8080,
		Mode:         gin.TestMode,
		Environment:  "test",
		InternalKey:  internalKey,
		ConnectionUC: nopConnections{},
		WebhookUC:    nopWebhooks{},
		SyncUC:       nopSync{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(log.NewNop(), Config{Port: 8080, Mode: gin.TestMode}); err == nil {
		t.Error("expected an error without use cases")
	}
	if _, err := New(log.NewNop(), Config{Mode: gin.TestMode, ConnectionUC: nopConnections{}, WebhookUC: nopWebhooks{}, SyncUC: nopSync{}}); err == nil {
		t.Error("expected an error without a port")
	}
}

func TestSystemRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	for _, path := range []string{"/health", "/ready", "/live"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
		})
	}
}

func TestManagementRoutesRequireInternalKey(t *testing.T) {
	srv := newTestServer(t, "k3y")

	paths := []string{
		"/api/v1/connections/c1",
		"/api/v1/projects/p1/connections",
		"/api/v1/connections/c1/commits",
		"/api/v1/connections/c1/webhook-events",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}
