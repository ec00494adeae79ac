package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git-integration/config"
	"git-integration/config/postgre"
	_ "git-integration/docs" // Swagger docs
	connRepository "git-integration/internal/connection/repository"
	connCache "git-integration/internal/connection/repository/cache"
	connMemory "git-integration/internal/connection/repository/memory"
	connPostgre "git-integration/internal/connection/repository/postgre"
	connUsecase "git-integration/internal/connection/usecase"
	"git-integration/internal/httpserver"
	"git-integration/internal/model"
	"git-integration/internal/processor"
	"git-integration/internal/provider/setup"
	syncRepository "git-integration/internal/sync/repository"
	syncMemory "git-integration/internal/sync/repository/memory"
	syncPostgre "git-integration/internal/sync/repository/postgre"
	syncUsecase "git-integration/internal/sync/usecase"
	"git-integration/internal/webhook"
	webhookHTTP "git-integration/internal/webhook/delivery/http"
	webhookRepository "git-integration/internal/webhook/repository"
	webhookMemory "git-integration/internal/webhook/repository/memory"
	webhookPostgre "git-integration/internal/webhook/repository/postgre"
	webhookUsecase "git-integration/internal/webhook/usecase"
	"git-integration/pkg/log"
	"git-integration/pkg/publisher"
)

const processorDrainTimeout = 30 * time.Second

// @title       Git Integration API
// @description OAuth connections to Git providers, webhook ingestion and commit/pull request sync.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		os.Exit(1)
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Git Integration service...")
	logger.Infof(ctx, "Environment: %s, storage: %s", cfg.Environment.Name, cfg.Storage.Driver)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "Service stopped with error: ", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	// 3. Storage
	var (
		db        *sql.DB
		connRepo  connRepository.Repository
		eventRepo webhookRepository.Repository
		syncRepo  syncRepository.Repository
	)
	if cfg.Storage.Driver == "postgres" {
		var err error
		db, err = postgre.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() {
			if err := postgre.Disconnect(db); err != nil {
				logger.Warnf(ctx, "Failed to close database: %v", err)
			}
		}()
		connRepo = connPostgre.New(logger, db)
		eventRepo = webhookPostgre.New(logger, db)
		syncRepo = syncPostgre.New(logger, db)
		logger.Info(ctx, "PostgreSQL connected and migrated")
	} else {
		connRepo = connMemory.New()
		eventRepo = webhookMemory.New()
		syncRepo = syncMemory.New()
		logger.Warn(ctx, "Using in-memory storage: state is lost on restart")
	}
	states := connCache.NewStateStore(cfg.OAuth.StateCapacity, cfg.OAuth.StateTTL)

	// 4. Provider registry
	registry, limiters, err := setup.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// 5. Domain events
	var pub publisher.Publisher
	if cfg.Events.TargetURL != "" {
		pub, err = publisher.NewCloudEvents(cfg.Events.TargetURL, cfg.Events.Source, cfg.Events.Timeout)
		if err != nil {
			return err
		}
		logger.Infof(ctx, "Publishing domain events to %s", cfg.Events.TargetURL)
	} else {
		pub = publisher.NewLog(logger)
	}

	if cfg.Webhook.PublicBaseURL == "" && cfg.Webhook.NgrokAgentURL != "" {
		if url, err := discoverWebhookBaseURL(ctx, cfg.Webhook.NgrokAgentURL); err != nil {
			logger.Warnf(ctx, "Could not detect ngrok URL, webhooks will not be registered: %v", err)
		} else {
			cfg.Webhook.PublicBaseURL = url
			logger.Infof(ctx, "Webhook base URL from ngrok: %s", url)
		}
	}

	// 6. Use cases
	webhookEvents := make([]model.EventKind, 0, len(cfg.Webhook.Events))
	for _, e := range cfg.Webhook.Events {
		webhookEvents = append(webhookEvents, model.EventKind(e))
	}
	connUC := connUsecase.New(logger, connRepo, states, registry, pub, connUsecase.Options{
		StateTTL:       cfg.OAuth.StateTTL,
		RefreshMargin:  cfg.OAuth.RefreshMargin,
		WebhookBaseURL: cfg.Webhook.PublicBaseURL,
		WebhookEvents:  webhookEvents,
	})
	syncUC := syncUsecase.New(logger, syncRepo, connUC, registry, limiters, pub, syncUsecase.Options{
		PageSize:         cfg.Sync.PageSize,
		MaxPages:         cfg.Sync.MaxPages,
		RequestTimeout:   cfg.Sync.RequestTimeout,
		RateLimitMaxWait: cfg.Sync.RateLimitMaxWait,
	})
	proc := processor.New(logger, eventRepo, connUC, syncUC, processor.Options{
		Workers:       cfg.Processor.Workers,
		MaxRetries:    cfg.Processor.MaxRetries,
		BaseBackoff:   cfg.Processor.BaseBackoff,
		MaxBackoff:    cfg.Processor.MaxBackoff,
		PollInterval:  cfg.Processor.PollInterval,
		RateLimitMode: cfg.Processor.RateLimitMode,
	})

	// 7. Processor, unless cmd/consumer runs it.
	var notifier webhook.Notifier
	if cfg.Processor.Embedded {
		if err := proc.Start(ctx); err != nil {
			return fmt.Errorf("start processor: %w", err)
		}
		notifier = proc
	} else {
		logger.Info(ctx, "Processor disabled: deliveries are processed by the consumer")
	}
	webhookUC := webhookUsecase.New(logger, eventRepo, connUC, registry, notifier)

	// 8. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:       logger,
		Port:         cfg.HTTPServer.Port,
		Mode:         cfg.HTTPServer.Mode,
		Environment:  cfg.Environment.Name,
		InternalKey:  cfg.Internal.APIKey,
		DB:           db,
		ConnectionUC: connUC,
		WebhookUC:    webhookUC,
		SyncUC:       syncUC,
		WebhookSecurity: webhookHTTP.SecurityConfig{
			AllowedIPs:      cfg.Webhook.AllowedIPs,
			RateLimitPerMin: cfg.Webhook.RateLimitPerMin,
			MaxBodyBytes:    cfg.Webhook.MaxBodyBytes,
		},
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	// 9. Run until signalled. Deliveries stop first, then the processor drains.
	serveErr := httpServer.Run(ctx)

	if cfg.Processor.Embedded {
		drainCtx, cancel := context.WithTimeout(context.Background(), processorDrainTimeout)
		defer cancel()
		if err := proc.Shutdown(drainCtx); err != nil {
			logger.Warnf(ctx, "Processor did not drain cleanly: %v", err)
		}
	}
	return serveErr
}
