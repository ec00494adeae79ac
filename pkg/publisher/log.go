package publisher

import (
	"context"

	pkgLog "git-integration/pkg/log"
)

type logPublisher struct {
	l pkgLog.Logger
}

// NewLog writes events to the logger. Used when no event sink is configured.
func NewLog(l pkgLog.Logger) Publisher {
	return &logPublisher{l: l}
}

func (p *logPublisher) Publish(ctx context.Context, e Event) error {
	p.l.Infof(ctx, "publisher.Publish: type=%s subject=%s data=%v", e.Type, e.Subject, e.Data)
	return nil
}
