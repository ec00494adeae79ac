package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"git-integration/internal/connection"
	"git-integration/internal/middleware"
	gitsync "git-integration/internal/sync"
	"git-integration/internal/webhook"
	webhookHTTP "git-integration/internal/webhook/delivery/http"
	"git-integration/pkg/log"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin         *gin.Engine
	l           log.Logger
	port        int
	mode        string
	environment string
	internalKey string

	// Storage, nil when running on memory repositories.
	db *sql.DB

	// Domains
	connectionUC connection.UseCase
	webhookUC    webhook.UseCase
	syncUC       gitsync.UseCase
	webhookSec   webhookHTTP.SecurityConfig

	mw middleware.Middleware
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string
	InternalKey string

	DB *sql.DB

	ConnectionUC    connection.UseCase
	WebhookUC       webhook.UseCase
	SyncUC          gitsync.UseCase
	WebhookSecurity webhookHTTP.SecurityConfig
}

// New creates a new HTTPServer instance and maps every route.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:            logger,
		gin:          gin.New(),
		port:         cfg.Port,
		mode:         cfg.Mode,
		environment:  cfg.Environment,
		internalKey:  cfg.InternalKey,
		db:           cfg.DB,
		connectionUC: cfg.ConnectionUC,
		webhookUC:    cfg.WebhookUC,
		syncUC:       cfg.SyncUC,
		webhookSec:   cfg.WebhookSecurity,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}
	srv.mw = middleware.New(srv.l, srv.internalKey)

	if err := srv.mapHandlers(); err != nil {
		return nil, err
	}
	return srv, nil
}

func (srv HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.connectionUC == nil || srv.webhookUC == nil || srv.syncUC == nil {
		return errors.New("connection, webhook and sync use cases are required")
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", srv.port),
		Handler:           srv.gin,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.l.Infof(ctx, "HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	srv.l.Info(ctx, "Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
