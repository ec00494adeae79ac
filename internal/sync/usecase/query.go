package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	"git-integration/internal/sync/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

func (uc *implUseCase) Trigger(ctx context.Context, sc model.Scope, input sync.TriggerInput) (sync.TriggerOutput, error) {
	conn, err := uc.connUC.Detail(ctx, sc, input.ConnectionID)
	if err != nil {
		return sync.TriggerOutput{}, err
	}

	out := sync.TriggerOutput{Branch: conn.Branch(input.Branch)}
	out.Commits, err = uc.SyncCommits(ctx, sync.SyncCommitsInput{ConnectionID: conn.ID, Branch: out.Branch})
	if err != nil {
		return sync.TriggerOutput{}, err
	}
	if input.PullRequests {
		out.PullRequests, err = uc.SyncPullRequests(ctx, sync.SyncPullRequestsInput{ConnectionID: conn.ID})
		if err != nil {
			return sync.TriggerOutput{}, err
		}
	}
	return out, nil
}

func (uc *implUseCase) ListCommits(ctx context.Context, sc model.Scope, input sync.ListCommitsInput) ([]model.Commit, error) {
	if _, err := uc.connUC.Detail(ctx, sc, input.ConnectionID); err != nil {
		return nil, err
	}
	return uc.repo.ListCommits(ctx, repository.ListCommitsOptions{
		ConnectionID: input.ConnectionID,
		Branch:       input.Branch,
		Limit:        clampLimit(input.Limit),
		Offset:       max(input.Offset, 0),
	})
}

func (uc *implUseCase) GetCommit(ctx context.Context, sc model.Scope, connectionID, sha string) (model.Commit, error) {
	if strings.TrimSpace(sha) == "" {
		return model.Commit{}, sync.ErrInvalidInput
	}
	if _, err := uc.connUC.Detail(ctx, sc, connectionID); err != nil {
		return model.Commit{}, err
	}

	c, err := uc.repo.GetCommit(ctx, connectionID, sha)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Commit{}, err
	}

	conn, strat, err := uc.prepare(ctx, connectionID)
	if err != nil {
		return model.Commit{}, err
	}
	var remote provider.Commit
	err = uc.call(ctx, conn, false, func(ctx context.Context) error {
		var err error
		remote, err = strat.GetCommit(ctx, conn.AccessToken, conn.RepositoryFullName, sha)
		return err
	})
	if err != nil {
		if provider.StatusCode(err) == http.StatusNotFound {
			return model.Commit{}, sync.ErrCommitNotFound
		}
		return model.Commit{}, err
	}

	// The branch is unknown for a commit fetched by sha.
	c = toCommit(conn.ID, "", remote)
	c.RecordedAt = uc.now().UTC()
	if err := uc.repo.UpsertCommits(ctx, []model.Commit{c}); err != nil {
		return model.Commit{}, err
	}
	return c, nil
}

func (uc *implUseCase) ListPullRequests(ctx context.Context, sc model.Scope, input sync.ListPullRequestsInput) ([]model.PullRequest, error) {
	if _, err := uc.connUC.Detail(ctx, sc, input.ConnectionID); err != nil {
		return nil, err
	}
	return uc.repo.ListPullRequests(ctx, repository.ListPullRequestsOptions{
		ConnectionID: input.ConnectionID,
		State:        input.State,
		Limit:        clampLimit(input.Limit),
		Offset:       max(input.Offset, 0),
	})
}

func (uc *implUseCase) GetPullRequest(ctx context.Context, sc model.Scope, connectionID string, number int) (model.PullRequest, error) {
	if number <= 0 {
		return model.PullRequest{}, sync.ErrInvalidInput
	}
	if _, err := uc.connUC.Detail(ctx, sc, connectionID); err != nil {
		return model.PullRequest{}, err
	}

	pr, err := uc.repo.GetPullRequest(ctx, connectionID, number)
	if err == nil {
		return pr, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.PullRequest{}, err
	}

	conn, strat, err := uc.prepare(ctx, connectionID)
	if err != nil {
		return model.PullRequest{}, err
	}
	var remote provider.PullRequest
	err = uc.call(ctx, conn, false, func(ctx context.Context) error {
		var err error
		remote, err = strat.GetPullRequest(ctx, conn.AccessToken, conn.RepositoryFullName, number)
		return err
	})
	if err != nil {
		if provider.StatusCode(err) == http.StatusNotFound {
			return model.PullRequest{}, sync.ErrPullRequestNotFound
		}
		return model.PullRequest{}, err
	}

	pr = toPullRequest(conn.ID, remote)
	pr.RecordedAt = uc.now().UTC()
	if err := uc.repo.UpsertPullRequests(ctx, []model.PullRequest{pr}); err != nil {
		return model.PullRequest{}, err
	}
	return pr, nil
}
