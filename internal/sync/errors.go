package sync

import "errors"

var (
	ErrCommitNotFound      = errors.New("commit not found")
	ErrPullRequestNotFound = errors.New("pull request not found")
	ErrInvalidInput        = errors.New("invalid sync input")
)
