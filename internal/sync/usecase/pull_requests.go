package usecase

import (
	"context"
	"errors"

	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	"git-integration/internal/sync/repository"
)

func (uc *implUseCase) SyncPullRequests(ctx context.Context, input sync.SyncPullRequestsInput) ([]model.PullRequest, error) {
	conn, strat, err := uc.prepare(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}

	fetched, err := uc.fetchOpenPullRequests(ctx, conn, strat, input.NoWait)
	if err != nil {
		uc.l.Warnf(ctx, "sync.usecase.SyncPullRequests: connection=%s: %v", conn.ID, err)
		uc.recordFailure(ctx, conn, err)
		return nil, err
	}

	// PRs recorded as open that are no longer listed, plus the one named by
	// the triggering event, have changed state and are fetched one by one.
	recheck, err := uc.stalePullRequests(ctx, conn.ID, fetched, input.Number)
	if err != nil {
		return nil, err
	}
	for _, number := range recheck {
		var pr provider.PullRequest
		err := uc.call(ctx, conn, input.NoWait, func(ctx context.Context) error {
			var err error
			pr, err = strat.GetPullRequest(ctx, conn.AccessToken, conn.RepositoryFullName, number)
			return err
		})
		if err != nil {
			if errors.Is(err, provider.ErrPermanent) {
				uc.l.Warnf(ctx, "sync.usecase.SyncPullRequests: connection=%s pr=%d: %v", conn.ID, number, err)
				continue
			}
			uc.recordFailure(ctx, conn, err)
			return nil, err
		}
		fetched = append(fetched, toPullRequest(conn.ID, pr))
	}

	if err := uc.ensureActive(ctx, conn.ID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	for i := range fetched {
		fetched[i].RecordedAt = now
	}
	if err := uc.repo.UpsertPullRequests(ctx, fetched); err != nil {
		uc.recordFailure(ctx, conn, err)
		return nil, err
	}

	uc.l.Infof(ctx, "sync.usecase.SyncPullRequests: connection=%s upserted=%d", conn.ID, len(fetched))
	uc.publish(ctx, model.DomainEventPullRequestsSynced, conn, map[string]any{"count": len(fetched)})
	return fetched, nil
}

func (uc *implUseCase) fetchOpenPullRequests(ctx context.Context, conn model.GitConnection, strat provider.Strategy, noWait bool) ([]model.PullRequest, error) {
	var out []model.PullRequest
	page := 1
	for i := 0; i < uc.opts.MaxPages && page > 0; i++ {
		var res provider.PullRequestPage
		err := uc.call(ctx, conn, noWait, func(ctx context.Context) error {
			var err error
			res, err = strat.ListPullRequests(ctx, conn.AccessToken, provider.ListPullRequestsOptions{
				FullName: conn.RepositoryFullName,
				OpenOnly: true,
				Page:     page,
				PerPage:  uc.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, pr := range res.Items {
			out = append(out, toPullRequest(conn.ID, pr))
		}
		page = res.NextPage
	}
	return out, nil
}

func (uc *implUseCase) stalePullRequests(ctx context.Context, connectionID string, fetched []model.PullRequest, extra int) ([]int, error) {
	listed := make(map[int]bool, len(fetched))
	for _, pr := range fetched {
		listed[pr.Number] = true
	}

	open, err := uc.repo.ListPullRequests(ctx, repository.ListPullRequestsOptions{
		ConnectionID: connectionID,
		State:        model.PullRequestOpen,
	})
	if err != nil {
		return nil, err
	}

	var out []int
	for _, pr := range open {
		if !listed[pr.Number] {
			listed[pr.Number] = true
			out = append(out, pr.Number)
		}
	}
	if extra > 0 && !listed[extra] {
		out = append(out, extra)
	}
	return out, nil
}
