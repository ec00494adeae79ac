package model

import "time"

// Commit is a recorded commit, keyed by (ConnectionID, SHA).
type Commit struct {
	ConnectionID string
	SHA          string
	Branch       string
	Message      string
	AuthorName   string
	AuthorEmail  string
	URL          string
	CommittedAt  time.Time
	RecordedAt   time.Time
}

// PullRequestState is the provider-neutral PR state.
type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "open"
	PullRequestClosed PullRequestState = "closed"
	PullRequestMerged PullRequestState = "merged"
)

// PullRequest is keyed by (ConnectionID, Number). Only the status fields
// (State, Title, UpdatedAt, MergedAt, ClosedAt, HeadSHA) change after insert.
type PullRequest struct {
	ConnectionID string
	Number       int
	Title        string
	State        PullRequestState
	SourceBranch string
	TargetBranch string
	HeadSHA      string
	AuthorLogin  string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MergedAt     time.Time
	ClosedAt     time.Time
	RecordedAt   time.Time
}

// SyncCursor is the newest commit recorded for one branch of a connection.
// BackfillFrom, when set, is the oldest commit of a walk that ran out of
// pages; history below it down to the previous cursor is not yet recorded.
type SyncCursor struct {
	ConnectionID string
	Branch       string
	SHA          string
	CommittedAt  time.Time
	BackfillFrom string
	UpdatedAt    time.Time
}
