package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v81/github"
	"golang.org/x/oauth2/endpoints"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	name       = "github"
	defaultAPI = "https://api.github.com/"
)

type strategy struct {
	oauth      provider.OAuthClient
	httpClient *http.Client
	baseURL    *url.URL
}

// New builds the GitHub strategy. cfg.APIURL points at a GitHub Enterprise
// REST root such as https://ghe.example.com/api/v3/.
func New(cfg provider.Config) (provider.Strategy, error) {
	api := cfg.APIURL
	if api == "" {
		api = defaultAPI
	}
	if !strings.HasSuffix(api, "/") {
		api += "/"
	}
	base, err := url.Parse(api)
	if err != nil {
		return nil, fmt.Errorf("github: parse api url: %w", err)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"repo", "admin:repo_hook"}
	}

	httpClient := cfg.HTTPClient()
	return &strategy{
		oauth:      provider.NewOAuthClient(name, cfg, endpoints.GitHub, httpClient),
		httpClient: httpClient,
		baseURL:    base,
	}, nil
}

func (s *strategy) Name() model.Provider { return model.ProviderGitHub }

func (s *strategy) AuthCodeURL(state, redirectURL string) string {
	return s.oauth.AuthCodeURL(state, redirectURL)
}

func (s *strategy) Exchange(ctx context.Context, code, redirectURL string) (provider.Token, error) {
	return s.oauth.Exchange(ctx, code, redirectURL)
}

func (s *strategy) Refresh(ctx context.Context, refreshToken string) (provider.Token, error) {
	return s.oauth.Refresh(ctx, refreshToken)
}

func (s *strategy) client(token string) *gh.Client {
	c := gh.NewClient(s.httpClient).WithAuthToken(token)
	c.BaseURL = s.baseURL
	return c
}

func splitFullName(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: github: repository %q is not owner/name", provider.ErrPermanent, fullName)
	}
	return owner, repo, nil
}

// classify maps go-github errors onto the provider taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return provider.Classify(name, op, http.StatusTooManyRequests, rle.Message)
	}
	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return provider.Classify(name, op, http.StatusTooManyRequests, abuse.Message)
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return provider.Classify(name, op, er.Response.StatusCode, er.Message)
	}
	return provider.ClassifyTransport(name, op, err)
}

func (s *strategy) ListRepositories(ctx context.Context, token string, page int) (provider.RepositoryPage, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{Page: page, PerPage: 50},
	}
	repos, resp, err := s.client(token).Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return provider.RepositoryPage{}, classify("list repositories", err)
	}

	out := provider.RepositoryPage{Items: make([]provider.Repository, 0, len(repos))}
	for _, r := range repos {
		out.Items = append(out.Items, toRepository(r))
	}
	if resp != nil {
		out.NextPage = resp.NextPage
	}
	return out, nil
}

func (s *strategy) GetRepository(ctx context.Context, token, fullName string) (provider.Repository, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return provider.Repository{}, err
	}
	r, _, err := s.client(token).Repositories.Get(ctx, owner, repo)
	if err != nil {
		return provider.Repository{}, classify("get repository", err)
	}
	return toRepository(r), nil
}

func (s *strategy) ListBranches(ctx context.Context, token, fullName string) ([]provider.Branch, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}

	var out []provider.Branch
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		branches, resp, err := s.client(token).Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, classify("list branches", err)
		}
		for _, b := range branches {
			out = append(out, provider.Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *strategy) ListCommits(ctx context.Context, token string, opt provider.ListCommitsOptions) (provider.CommitPage, error) {
	owner, repo, err := splitFullName(opt.FullName)
	if err != nil {
		return provider.CommitPage{}, err
	}
	opts := &gh.CommitsListOptions{
		SHA:         opt.Branch,
		ListOptions: gh.ListOptions{Page: opt.Page, PerPage: opt.PerPage},
	}
	commits, resp, err := s.client(token).Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return provider.CommitPage{}, classify("list commits", err)
	}

	out := provider.CommitPage{Items: make([]provider.Commit, 0, len(commits))}
	for _, c := range commits {
		out.Items = append(out.Items, toCommit(c))
	}
	if resp != nil {
		out.NextPage = resp.NextPage
	}
	return out, nil
}

func (s *strategy) GetCommit(ctx context.Context, token, fullName, sha string) (provider.Commit, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return provider.Commit{}, err
	}
	c, _, err := s.client(token).Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return provider.Commit{}, classify("get commit", err)
	}
	return toCommit(c), nil
}

func (s *strategy) ListPullRequests(ctx context.Context, token string, opt provider.ListPullRequestsOptions) (provider.PullRequestPage, error) {
	owner, repo, err := splitFullName(opt.FullName)
	if err != nil {
		return provider.PullRequestPage{}, err
	}
	state := "all"
	if opt.OpenOnly {
		state = "open"
	}
	opts := &gh.PullRequestListOptions{
		State:       state,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{Page: opt.Page, PerPage: opt.PerPage},
	}
	prs, resp, err := s.client(token).PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return provider.PullRequestPage{}, classify("list pull requests", err)
	}

	out := provider.PullRequestPage{Items: make([]provider.PullRequest, 0, len(prs))}
	for _, pr := range prs {
		out.Items = append(out.Items, toPullRequest(pr))
	}
	if resp != nil {
		out.NextPage = resp.NextPage
	}
	return out, nil
}

func (s *strategy) GetPullRequest(ctx context.Context, token, fullName string, number int) (provider.PullRequest, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return provider.PullRequest{}, err
	}
	pr, _, err := s.client(token).PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return provider.PullRequest{}, classify("get pull request", err)
	}
	return toPullRequest(pr), nil
}

func (s *strategy) RegisterWebhook(ctx context.Context, token string, opt provider.RegisterWebhookOptions) (string, error) {
	owner, repo, err := splitFullName(opt.FullName)
	if err != nil {
		return "", err
	}
	hook := &gh.Hook{
		Name:   gh.Ptr("web"),
		Active: gh.Ptr(true),
		Events: hookEvents(opt.Events),
		Config: &gh.HookConfig{
			URL:         gh.Ptr(opt.URL),
			ContentType: gh.Ptr("json"),
			Secret:      gh.Ptr(opt.Secret),
			InsecureSSL: gh.Ptr("0"),
		},
	}
	created, _, err := s.client(token).Repositories.CreateHook(ctx, owner, repo, hook)
	if err != nil {
		return "", classify("create webhook", err)
	}
	return strconv.FormatInt(created.GetID(), 10), nil
}

func (s *strategy) DeleteWebhook(ctx context.Context, token, fullName, hookID string) error {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(hookID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: github: webhook id %q", provider.ErrPermanent, hookID)
	}
	resp, err := s.client(token).Repositories.DeleteHook(ctx, owner, repo, id)
	if err != nil {
		// Already gone is as good as deleted.
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return classify("delete webhook", err)
	}
	return nil
}

func hookEvents(kinds []model.EventKind) []string {
	var out []string
	for _, k := range kinds {
		switch k {
		case model.EventKindPush:
			out = append(out, "push")
		case model.EventKindPullRequest:
			out = append(out, "pull_request")
		}
	}
	if len(out) == 0 {
		out = []string{"push", "pull_request"}
	}
	return out
}

func toRepository(r *gh.Repository) provider.Repository {
	return provider.Repository{
		ID:            strconv.FormatInt(r.GetID(), 10),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		URL:           r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
	}
}

func toCommit(c *gh.RepositoryCommit) provider.Commit {
	inner := c.GetCommit()
	committedAt := inner.GetCommitter().GetDate().Time
	if committedAt.IsZero() {
		committedAt = inner.GetAuthor().GetDate().Time
	}
	return provider.Commit{
		SHA:         c.GetSHA(),
		Message:     inner.GetMessage(),
		AuthorName:  inner.GetAuthor().GetName(),
		AuthorEmail: inner.GetAuthor().GetEmail(),
		URL:         c.GetHTMLURL(),
		CommittedAt: committedAt.UTC(),
	}
}

func toPullRequest(pr *gh.PullRequest) provider.PullRequest {
	state := model.PullRequestOpen
	switch {
	case !pr.GetMergedAt().Time.IsZero() || pr.GetMerged():
		state = model.PullRequestMerged
	case pr.GetState() == "closed":
		state = model.PullRequestClosed
	}
	return provider.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		State:        state,
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		HeadSHA:      pr.GetHead().GetSHA(),
		AuthorLogin:  pr.GetUser().GetLogin(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		MergedAt:     pr.GetMergedAt().Time,
		ClosedAt:     pr.GetClosedAt().Time,
	}
}
