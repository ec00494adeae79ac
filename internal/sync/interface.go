package sync

import (
	"context"

	"git-integration/internal/model"
)

// UseCase is the Sync Engine. The Sync* methods run without a caller scope
// and are driven by the processor; the rest back the HTTP API.
type UseCase interface {
	// SyncCommits pulls commits newer than the branch cursor, records them
	// and advances the cursor to the newest one. Returned commits are oldest first.
	SyncCommits(ctx context.Context, input SyncCommitsInput) ([]model.Commit, error)
	// SyncPullRequests re-fetches every open pull request and upserts it by number.
	SyncPullRequests(ctx context.Context, input SyncPullRequestsInput) ([]model.PullRequest, error)

	// Trigger runs a manual sync on behalf of an API caller.
	Trigger(ctx context.Context, sc model.Scope, input TriggerInput) (TriggerOutput, error)
	ListCommits(ctx context.Context, sc model.Scope, input ListCommitsInput) ([]model.Commit, error)
	// GetCommit serves a recorded commit, fetching and recording it on a miss.
	GetCommit(ctx context.Context, sc model.Scope, connectionID, sha string) (model.Commit, error)
	ListPullRequests(ctx context.Context, sc model.Scope, input ListPullRequestsInput) ([]model.PullRequest, error)
	GetPullRequest(ctx context.Context, sc model.Scope, connectionID string, number int) (model.PullRequest, error)
}
