// Package processor drives stored webhook events through their state
// machine. Each connection is served by one sequential lane; lanes of
// different connections run concurrently up to a worker limit.
package processor

import (
	"context"
	"sync"
	"time"

	"git-integration/internal/connection"
	gitsync "git-integration/internal/sync"
	"git-integration/internal/webhook"
	"git-integration/internal/webhook/repository"
	pkgLog "git-integration/pkg/log"
)

const (
	RateLimitBlock = "block"
	RateLimitDefer = "defer"
)

// Options tunes concurrency and the retry policy.
type Options struct {
	Workers      int
	MaxRetries   int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	PollInterval time.Duration
	// PollBatch bounds how many due connections one poll wakes.
	PollBatch int
	// RateLimitMode is RateLimitBlock or RateLimitDefer.
	RateLimitMode string
}

type lane struct {
	// again is set when new work arrived while the lane was running.
	again bool
}

type Processor struct {
	l      pkgLog.Logger
	repo   repository.Repository
	connUC connection.UseCase
	syncUC gitsync.UseCase
	opts   Options
	now    func() time.Time

	sem chan struct{}

	mu       sync.Mutex
	lanes    map[string]*lane
	started  bool
	stopping bool
	stop     chan struct{}
	wg       sync.WaitGroup

	workCtx    context.Context
	cancelWork context.CancelFunc
}

var _ webhook.Notifier = (*Processor)(nil)

// New creates a Processor. Nothing runs until Start.
func New(
	l pkgLog.Logger,
	repo repository.Repository,
	connUC connection.UseCase,
	syncUC gitsync.UseCase,
	opts Options,
) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 5 * time.Second
	}
	if opts.MaxBackoff < opts.BaseBackoff {
		opts.MaxBackoff = opts.BaseBackoff * 64
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PollBatch <= 0 {
		opts.PollBatch = 100
	}
	if opts.RateLimitMode != RateLimitDefer {
		opts.RateLimitMode = RateLimitBlock
	}

	workCtx, cancel := context.WithCancel(context.Background())
	return &Processor{
		l:          l,
		repo:       repo,
		connUC:     connUC,
		syncUC:     syncUC,
		opts:       opts,
		now:        time.Now,
		sem:        make(chan struct{}, opts.Workers),
		lanes:      make(map[string]*lane),
		stop:       make(chan struct{}),
		workCtx:    workCtx,
		cancelWork: cancel,
	}
}
