package usecase

import (
	"time"

	"github.com/google/uuid"

	"git-integration/internal/connection"
	"git-integration/internal/provider"
	"git-integration/internal/webhook"
	"git-integration/internal/webhook/repository"
	pkgLog "git-integration/pkg/log"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type implUseCase struct {
	l        pkgLog.Logger
	repo     repository.Repository
	connUC   connection.UseCase
	registry *provider.Registry
	notifier webhook.Notifier
	now      func() time.Time
	newID    func() string
}

var _ webhook.UseCase = (*implUseCase)(nil)

// New creates the webhook ingestor. notifier may be nil, in which case the
// processor only discovers new events on its next poll.
func New(
	l pkgLog.Logger,
	repo repository.Repository,
	connUC connection.UseCase,
	registry *provider.Registry,
	notifier webhook.Notifier,
) *implUseCase {
	return &implUseCase{
		l:        l,
		repo:     repo,
		connUC:   connUC,
		registry: registry,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}
