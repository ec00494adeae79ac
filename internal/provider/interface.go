package provider

import (
	"context"
	"net/http"

	"git-integration/internal/model"
)

// Strategy hides one provider's OAuth, REST and webhook wire details behind
// a uniform contract. Implementations hold no per-connection state.
type Strategy interface {
	Name() model.Provider

	// OAuth
	AuthCodeURL(state, redirectURL string) string
	Exchange(ctx context.Context, code, redirectURL string) (Token, error)
	Refresh(ctx context.Context, refreshToken string) (Token, error)

	// Repository data
	ListRepositories(ctx context.Context, token string, page int) (RepositoryPage, error)
	GetRepository(ctx context.Context, token, fullName string) (Repository, error)
	ListBranches(ctx context.Context, token, fullName string) ([]Branch, error)
	ListCommits(ctx context.Context, token string, opt ListCommitsOptions) (CommitPage, error)
	GetCommit(ctx context.Context, token, fullName, sha string) (Commit, error)
	ListPullRequests(ctx context.Context, token string, opt ListPullRequestsOptions) (PullRequestPage, error)
	GetPullRequest(ctx context.Context, token, fullName string, number int) (PullRequest, error)

	// Webhook lifecycle
	RegisterWebhook(ctx context.Context, token string, opt RegisterWebhookOptions) (string, error)
	DeleteWebhook(ctx context.Context, token, fullName, hookID string) error

	// Inbound deliveries
	VerifySignature(body []byte, headers http.Header, secret string) bool
	ParseDelivery(headers http.Header, body []byte) (Delivery, error)
}
