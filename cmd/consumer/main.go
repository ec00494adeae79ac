package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git-integration/config"
	"git-integration/config/postgre"
	connCache "git-integration/internal/connection/repository/cache"
	connPostgre "git-integration/internal/connection/repository/postgre"
	connUsecase "git-integration/internal/connection/usecase"
	"git-integration/internal/processor"
	"git-integration/internal/provider/setup"
	syncPostgre "git-integration/internal/sync/repository/postgre"
	syncUsecase "git-integration/internal/sync/usecase"
	webhookPostgre "git-integration/internal/webhook/repository/postgre"
	"git-integration/pkg/log"
	"git-integration/pkg/publisher"
)

const drainTimeout = 30 * time.Second

// main is the entry point for the standalone webhook processor.
// It polls stored deliveries from PostgreSQL, so the API can run with
// processor.embedded=false and scale separately.
//
// Pattern:
//  1. Initialize infra (same as cmd/api/main.go)
//  2. Create UseCases
//  3. Start the processor
//  4. Run & graceful shutdown
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		os.Exit(1)
	}

	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting webhook consumer...")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "Consumer stopped with error: ", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Consumer stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	if cfg.Storage.Driver != "postgres" {
		return errors.New("the consumer needs storage.driver=postgres to share events with the API")
	}

	// Infrastructure
	db, err := postgre.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() {
		if err := postgre.Disconnect(db); err != nil {
			logger.Warnf(ctx, "Failed to close database: %v", err)
		}
	}()

	registry, limiters, err := setup.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var pub publisher.Publisher = publisher.NewLog(logger)
	if cfg.Events.TargetURL != "" {
		if pub, err = publisher.NewCloudEvents(cfg.Events.TargetURL, cfg.Events.Source, cfg.Events.Timeout); err != nil {
			return err
		}
	}

	// UseCases. The state store is never read here; the manager only
	// refreshes tokens on this side.
	connUC := connUsecase.New(logger, connPostgre.New(logger, db),
		connCache.NewStateStore(1, cfg.OAuth.StateTTL), registry, pub,
		connUsecase.Options{RefreshMargin: cfg.OAuth.RefreshMargin})

	syncUC := syncUsecase.New(logger, syncPostgre.New(logger, db), connUC, registry, limiters, pub, syncUsecase.Options{
		PageSize:         cfg.Sync.PageSize,
		MaxPages:         cfg.Sync.MaxPages,
		RequestTimeout:   cfg.Sync.RequestTimeout,
		RateLimitMaxWait: cfg.Sync.RateLimitMaxWait,
	})

	proc := processor.New(logger, webhookPostgre.New(logger, db), connUC, syncUC, processor.Options{
		Workers:       cfg.Processor.Workers,
		MaxRetries:    cfg.Processor.MaxRetries,
		BaseBackoff:   cfg.Processor.BaseBackoff,
		MaxBackoff:    cfg.Processor.MaxBackoff,
		PollInterval:  cfg.Processor.PollInterval,
		RateLimitMode: cfg.Processor.RateLimitMode,
	})

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("start processor: %w", err)
	}
	logger.Infof(ctx, "Consumer running for providers %v", registry.Providers())

	<-ctx.Done()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := proc.Shutdown(drainCtx); err != nil {
		logger.Warnf(ctx, "Processor did not drain cleanly: %v", err)
	}
	return nil
}
