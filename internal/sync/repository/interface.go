package repository

import (
	"context"

	"git-integration/internal/model"
)

// Repository stores synced commits, pull requests and per-branch cursors.
type Repository interface {
	// UpsertCommits inserts or refreshes commits keyed by (ConnectionID, SHA).
	// The branch a commit was first seen on is kept.
	UpsertCommits(ctx context.Context, commits []model.Commit) error
	// KnownSHAs returns the subset of shas already recorded for the connection.
	KnownSHAs(ctx context.Context, connectionID string, shas []string) (map[string]bool, error)
	GetCommit(ctx context.Context, connectionID, sha string) (model.Commit, error)
	ListCommits(ctx context.Context, opt ListCommitsOptions) ([]model.Commit, error)

	// UpsertPullRequests inserts or refreshes pull requests keyed by (ConnectionID, Number).
	UpsertPullRequests(ctx context.Context, prs []model.PullRequest) error
	GetPullRequest(ctx context.Context, connectionID string, number int) (model.PullRequest, error)
	ListPullRequests(ctx context.Context, opt ListPullRequestsOptions) ([]model.PullRequest, error)

	GetCursor(ctx context.Context, connectionID, branch string) (model.SyncCursor, error)
	SaveCursor(ctx context.Context, cursor model.SyncCursor) error
}
