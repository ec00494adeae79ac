package sync

import "git-integration/internal/model"

type SyncCommitsInput struct {
	ConnectionID string
	// Branch falls back to the connection's default branch.
	Branch string
	// NoWait fails with provider.ErrRateLimited instead of waiting for budget.
	NoWait bool
}

type SyncPullRequestsInput struct {
	ConnectionID string
	// Number, when set, is fetched individually as well, so a PR that just
	// left the open state is still recorded.
	Number int
	NoWait bool
}

type TriggerInput struct {
	ConnectionID string
	Branch       string
	PullRequests bool
}

type TriggerOutput struct {
	Branch       string
	Commits      []model.Commit
	PullRequests []model.PullRequest
}

type ListCommitsInput struct {
	ConnectionID string
	Branch       string
	Limit        int
	Offset       int
}

type ListPullRequestsInput struct {
	ConnectionID string
	State        model.PullRequestState
	Limit        int
	Offset       int
}
