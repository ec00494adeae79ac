package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	"git-integration/pkg/publisher"
	"git-integration/pkg/ratelimit"
)

// prepare loads an active connection with a fresh token and its strategy.
func (uc *implUseCase) prepare(ctx context.Context, connectionID string) (model.GitConnection, provider.Strategy, error) {
	if strings.TrimSpace(connectionID) == "" {
		return model.GitConnection{}, nil, sync.ErrInvalidInput
	}
	conn, err := uc.connUC.Get(ctx, connectionID)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	if !conn.Active {
		return model.GitConnection{}, nil, connection.ErrConnectionInactive
	}
	if !conn.HasRepository() {
		return model.GitConnection{}, nil, connection.ErrRepositoryRequired
	}

	conn, err = uc.connUC.RefreshIfNeeded(ctx, conn)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	strat, err := uc.registry.Get(conn.Provider)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	return conn, strat, nil
}

// ensureActive re-reads the connection right before a write, so a delete
// that landed mid-sync stops further writes.
func (uc *implUseCase) ensureActive(ctx context.Context, connectionID string) error {
	conn, err := uc.connUC.Get(ctx, connectionID)
	if err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			return connection.ErrConnectionInactive
		}
		return err
	}
	if !conn.Active {
		return connection.ErrConnectionInactive
	}
	return nil
}

// budget takes one token from the provider's bucket for this connection.
func (uc *implUseCase) budget(ctx context.Context, conn model.GitConnection, noWait bool) error {
	limiter := uc.limiters[conn.Provider]
	if limiter == nil {
		return nil
	}
	maxWait := uc.opts.RateLimitMaxWait
	if noWait {
		maxWait = 0
	}

	err := limiter.Wait(ctx, string(conn.Provider)+":"+conn.ID, maxWait)
	if errors.Is(err, ratelimit.ErrLimited) {
		return fmt.Errorf("%w: %v", provider.ErrRateLimited, err)
	}
	return err
}

// call runs one budgeted, time-boxed provider request.
func (uc *implUseCase) call(ctx context.Context, conn model.GitConnection, noWait bool, fn func(context.Context) error) error {
	if err := uc.budget(ctx, conn, noWait); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.opts.RequestTimeout)
	defer cancel()
	return fn(callCtx)
}

// recordFailure marks the connection's sync state without touching the cursor.
func (uc *implUseCase) recordFailure(ctx context.Context, conn model.GitConnection, cause error) {
	if errors.Is(cause, connection.ErrConnectionInactive) {
		return
	}
	err := uc.connUC.UpdateSyncState(ctx, connection.UpdateSyncStateInput{
		ID:        conn.ID,
		Status:    model.SyncStatusError,
		LastError: cause.Error(),
	})
	if err != nil {
		uc.l.Warnf(ctx, "sync.usecase.recordFailure: connection=%s: %v", conn.ID, err)
	}
}

func (uc *implUseCase) publish(ctx context.Context, eventType string, conn model.GitConnection, data map[string]any) {
	if uc.publisher == nil {
		return
	}
	data["connection_id"] = conn.ID
	data["project_id"] = conn.ProjectID
	data["provider"] = conn.Provider
	data["repository"] = conn.RepositoryFullName

	err := uc.publisher.Publish(ctx, publisher.Event{
		Type:    eventType,
		Subject: conn.ID,
		Time:    uc.now(),
		Data:    data,
	})
	if err != nil {
		uc.l.Warnf(ctx, "sync.usecase.publish: type=%s connection=%s: %v", eventType, conn.ID, err)
	}
}

func toCommit(connectionID, branch string, c provider.Commit) model.Commit {
	return model.Commit{
		ConnectionID: connectionID,
		SHA:          c.SHA,
		Branch:       branch,
		Message:      c.Message,
		AuthorName:   c.AuthorName,
		AuthorEmail:  c.AuthorEmail,
		URL:          c.URL,
		CommittedAt:  c.CommittedAt,
	}
}

func toPullRequest(connectionID string, pr provider.PullRequest) model.PullRequest {
	return model.PullRequest{
		ConnectionID: connectionID,
		Number:       pr.Number,
		Title:        pr.Title,
		State:        pr.State,
		SourceBranch: pr.SourceBranch,
		TargetBranch: pr.TargetBranch,
		HeadSHA:      pr.HeadSHA,
		AuthorLogin:  pr.AuthorLogin,
		URL:          pr.URL,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
		MergedAt:     pr.MergedAt,
		ClosedAt:     pr.ClosedAt,
	}
}
