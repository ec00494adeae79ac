package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	gitsync "git-integration/internal/sync"
	"git-integration/internal/webhook/repository"
)

// step processes the head event of a connection. It reports whether the
// lane should look at the next head.
func (p *Processor) step(connectionID string) bool {
	ctx := p.workCtx

	head, err := p.repo.Head(ctx, connectionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			p.l.Errorf(ctx, "processor.step.Head: connection=%s: %v", connectionID, err)
		}
		return false
	}
	if !head.Due(p.now()) {
		return false
	}

	conn, connErr := p.connUC.Get(ctx, connectionID)
	if connErr != nil && !errors.Is(connErr, connection.ErrConnectionNotFound) {
		// Lookup failed, not the connection: the event stays PENDING for the poller.
		p.l.Warnf(ctx, "processor.step.Get: connection=%s: %v", connectionID, connErr)
		return false
	}
	if connErr == nil && conn.Active && !conn.AcceptsEvent(head.Kind) {
		return p.transition(ctx, repository.TransitionOptions{
			ID:          head.ID,
			From:        model.WebhookPending,
			To:          model.WebhookIgnored,
			RetryCount:  head.RetryCount,
			ProcessedAt: p.now().UTC(),
		})
	}

	event, err := p.repo.Claim(ctx, head.ID, p.now().UTC())
	if err != nil {
		if !errors.Is(err, repository.ErrNotClaimable) {
			p.l.Errorf(ctx, "processor.step.Claim: event=%s: %v", head.ID, err)
		}
		return false
	}

	started := p.now()
	if connErr == nil && !conn.Active {
		connErr = connection.ErrConnectionInactive
	}
	err = connErr
	if err == nil {
		err = p.dispatch(ctx, event)
	}
	return p.finish(ctx, event, started, err)
}

func (p *Processor) dispatch(ctx context.Context, e model.WebhookEvent) error {
	noWait := p.opts.RateLimitMode == RateLimitDefer

	switch e.Kind {
	case model.EventKindPush:
		_, err := p.syncUC.SyncCommits(ctx, gitsync.SyncCommitsInput{
			ConnectionID: e.ConnectionID,
			Branch:       e.Branch,
			NoWait:       noWait,
		})
		return err
	case model.EventKindPullRequest:
		_, err := p.syncUC.SyncPullRequests(ctx, gitsync.SyncPullRequestsInput{
			ConnectionID: e.ConnectionID,
			Number:       e.PRNumber,
			NoWait:       noWait,
		})
		return err
	case model.EventKindPing:
		return nil
	}
	return fmt.Errorf("no handler for event kind %q", e.Kind)
}

// finish records the outcome of a PROCESSING event.
func (p *Processor) finish(ctx context.Context, e model.WebhookEvent, started time.Time, err error) bool {
	now := p.now().UTC()
	duration := now.Sub(started).Milliseconds()

	opt := repository.TransitionOptions{
		ID:         e.ID,
		From:       model.WebhookProcessing,
		RetryCount: e.RetryCount,
		DurationMs: duration,
	}

	switch {
	case err == nil:
		opt.To = model.WebhookProcessed
		opt.ProcessedAt = now
		p.l.Infof(ctx, "processor.finish: event=%s kind=%s connection=%s processed in %dms", e.ID, e.Kind, e.ConnectionID, duration)

	case errors.Is(err, context.Canceled) && p.workCtx.Err() != nil:
		// Shutdown cut the attempt short; it does not count as a retry.
		opt.To = model.WebhookPending
		opt.ErrorMessage = e.ErrorMessage
		opt.NextAttemptAt = now
		p.l.Warnf(ctx, "processor.finish: event=%s interrupted by shutdown", e.ID)
		p.transition(context.Background(), opt)
		return false

	case provider.IsTransient(err) && e.RetryCount < p.opts.MaxRetries:
		// FAILED → PENDING is written together with the failure.
		delay := Backoff(p.opts.BaseBackoff, p.opts.MaxBackoff, e.RetryCount)
		opt.To = model.WebhookPending
		opt.ErrorMessage = err.Error()
		opt.RetryCount = e.RetryCount + 1
		opt.LastRetryAt = now
		opt.NextAttemptAt = now.Add(delay)
		p.l.Warnf(ctx, "processor.finish: event=%s attempt %d failed, retry in %s: %v", e.ID, opt.RetryCount, delay, err)

	default:
		opt.To = model.WebhookFailed
		opt.ErrorMessage = err.Error()
		p.l.Errorf(ctx, "processor.finish: event=%s kind=%s connection=%s failed: %v", e.ID, e.Kind, e.ConnectionID, err)
	}

	return p.transition(ctx, opt)
}

func (p *Processor) transition(ctx context.Context, opt repository.TransitionOptions) bool {
	if !model.CanTransition(opt.From, opt.To) {
		p.l.Errorf(ctx, "processor.transition: illegal %s -> %s for event %s", opt.From, opt.To, opt.ID)
		return false
	}
	if err := p.repo.Transition(ctx, opt); err != nil {
		p.l.Errorf(ctx, "processor.transition: event=%s %s -> %s: %v", opt.ID, opt.From, opt.To, err)
		return false
	}
	return true
}
