package usecase

import (
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	pkgLog "git-integration/pkg/log"
	"git-integration/pkg/publisher"
)

// Options tunes the connection manager.
type Options struct {
	StateTTL      time.Duration
	RefreshMargin time.Duration
	// WebhookBaseURL is the public root providers call back on. Hooks are not
	// registered when it is empty.
	WebhookBaseURL string
	WebhookEvents  []model.EventKind
}

type implUseCase struct {
	l         pkgLog.Logger
	repo      repository.Repository
	states    repository.StateStore
	registry  *provider.Registry
	publisher publisher.Publisher
	opts      Options
	now       func() time.Time
	newID     func() string
	newSecret func() (string, error)
}

var _ connection.UseCase = (*implUseCase)(nil)

// New creates the connection UseCase.
func New(
	l pkgLog.Logger,
	repo repository.Repository,
	states repository.StateStore,
	registry *provider.Registry,
	pub publisher.Publisher,
	opts Options,
) *implUseCase {
	if opts.StateTTL <= 0 {
		opts.StateTTL = 10 * time.Minute
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = 5 * time.Minute
	}
	if len(opts.WebhookEvents) == 0 {
		opts.WebhookEvents = model.DefaultWebhookEvents
	}
	return &implUseCase{
		l:         l,
		repo:      repo,
		states:    states,
		registry:  registry,
		publisher: pub,
		opts:      opts,
		now:       time.Now,
		newID:     newUUID,
		newSecret: randomToken,
	}
}
