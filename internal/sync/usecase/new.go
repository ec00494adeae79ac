package usecase

import (
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	"git-integration/internal/sync/repository"
	pkgLog "git-integration/pkg/log"
	"git-integration/pkg/publisher"
	"git-integration/pkg/ratelimit"
)

// Options tunes paging and outbound call budgets.
type Options struct {
	PageSize int
	// MaxPages bounds each history walk of a SyncCommits run.
	MaxPages int
	// RequestTimeout bounds each provider call.
	RequestTimeout time.Duration
	// RateLimitMaxWait is how long a call may block for budget.
	RateLimitMaxWait time.Duration
}

type implUseCase struct {
	l         pkgLog.Logger
	repo      repository.Repository
	connUC    connection.UseCase
	registry  *provider.Registry
	limiters  map[model.Provider]*ratelimit.Limiter
	publisher publisher.Publisher
	opts      Options
	now       func() time.Time
}

var _ sync.UseCase = (*implUseCase)(nil)

// New creates the Sync Engine. limiters holds one budget per provider and may
// omit providers that should not be throttled.
func New(
	l pkgLog.Logger,
	repo repository.Repository,
	connUC connection.UseCase,
	registry *provider.Registry,
	limiters map[model.Provider]*ratelimit.Limiter,
	pub publisher.Publisher,
	opts Options,
) *implUseCase {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RateLimitMaxWait < 0 {
		opts.RateLimitMaxWait = 0
	}
	return &implUseCase{
		l:         l,
		repo:      repo,
		connUC:    connUC,
		registry:  registry,
		limiters:  limiters,
		publisher: pub,
		opts:      opts,
		now:       time.Now,
	}
}
