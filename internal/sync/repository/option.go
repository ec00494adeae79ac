package repository

import "git-integration/internal/model"

type ListCommitsOptions struct {
	ConnectionID string
	// Branch filters when non-empty.
	Branch string
	Limit  int
	Offset int
}

type ListPullRequestsOptions struct {
	ConnectionID string
	// State filters when non-empty.
	State  model.PullRequestState
	Limit  int
	Offset int
}
