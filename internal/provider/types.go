package provider

import (
	"time"

	"git-integration/internal/model"
)

// Token is the result of a code exchange or refresh.
type Token struct {
	AccessToken  string
	RefreshToken string
	// Expiry is zero when the provider issued a non-expiring token.
	Expiry time.Time
}

type Repository struct {
	ID            string
	Name          string
	FullName      string
	URL           string
	DefaultBranch string
	Private       bool
}

type RepositoryPage struct {
	Items []Repository
	// NextPage is 0 when there are no more pages.
	NextPage int
}

type Branch struct {
	Name string
	SHA  string
}

type Commit struct {
	SHA         string
	Message     string
	AuthorName  string
	AuthorEmail string
	URL         string
	CommittedAt time.Time
}

type CommitPage struct {
	Items    []Commit
	NextPage int
}

type ListCommitsOptions struct {
	FullName string
	// Branch is the listing start point: a branch name or a commit SHA.
	Branch   string
	Page     int
	PerPage  int
}

type PullRequest struct {
	Number       int
	Title        string
	State        model.PullRequestState
	SourceBranch string
	TargetBranch string
	HeadSHA      string
	AuthorLogin  string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MergedAt     time.Time
	ClosedAt     time.Time
}

type PullRequestPage struct {
	Items    []PullRequest
	NextPage int
}

type ListPullRequestsOptions struct {
	FullName string
	// OpenOnly restricts the listing to open pull requests.
	OpenOnly bool
	Page     int
	PerPage  int
}

type RegisterWebhookOptions struct {
	FullName string
	URL      string
	Secret   string
	Events   []model.EventKind
}

// Delivery is what the ingestor needs from an inbound webhook.
type Delivery struct {
	EventID   string
	EventType string
	Kind      model.EventKind
	// Branch is set for push events.
	Branch string
	// PRNumber is set for pull request events.
	PRNumber int
	Action   string
}
