package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/endpoints"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	name       = "gitlab"
	defaultAPI = "https://gitlab.com/api/v4"
)

type strategy struct {
	oauth provider.OAuthClient
	rest  provider.RESTClient
}

// New builds the GitLab strategy. Self-managed instances set APIURL, AuthURL and TokenURL.
func New(cfg provider.Config) (provider.Strategy, error) {
	api := strings.TrimRight(cfg.APIURL, "/")
	if api == "" {
		api = defaultAPI
	}
	if _, err := url.Parse(api); err != nil {
		return nil, fmt.Errorf("gitlab: parse api url: %w", err)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"api"}
	}

	httpClient := cfg.HTTPClient()
	return &strategy{
		oauth: provider.NewOAuthClient(name, cfg, endpoints.GitLab, httpClient),
		rest:  provider.RESTClient{Provider: name, BaseURL: api, HTTP: httpClient},
	}, nil
}

func (s *strategy) Name() model.Provider { return model.ProviderGitLab }

func (s *strategy) AuthCodeURL(state, redirectURL string) string {
	return s.oauth.AuthCodeURL(state, redirectURL)
}

func (s *strategy) Exchange(ctx context.Context, code, redirectURL string) (provider.Token, error) {
	return s.oauth.Exchange(ctx, code, redirectURL)
}

func (s *strategy) Refresh(ctx context.Context, refreshToken string) (provider.Token, error) {
	return s.oauth.Refresh(ctx, refreshToken)
}

type project struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
	DefaultBranch     string `json:"default_branch"`
	Visibility        string `json:"visibility"`
}

type commit struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	CommittedDate time.Time `json:"committed_date"`
	WebURL        string    `json:"web_url"`
}

type mergeRequest struct {
	IID          int        `json:"iid"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	SourceBranch string     `json:"source_branch"`
	TargetBranch string     `json:"target_branch"`
	SHA          string     `json:"sha"`
	WebURL       string     `json:"web_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	Author       struct {
		Username string `json:"username"`
	} `json:"author"`
}

type branch struct {
	Name   string `json:"name"`
	Commit struct {
		ID string `json:"id"`
	} `json:"commit"`
}

type hook struct {
	ID int64 `json:"id"`
}

func projectPath(fullName string) string {
	return "/projects/" + url.PathEscape(fullName)
}

// nextPage reads GitLab's offset pagination header.
func nextPage(h http.Header) int {
	n, _ := strconv.Atoi(h.Get("X-Next-Page"))
	return n
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	return q
}

func (s *strategy) ListRepositories(ctx context.Context, token string, page int) (provider.RepositoryPage, error) {
	q := pageQuery(page, 50)
	q.Set("membership", "true")
	q.Set("order_by", "last_activity_at")

	var projects []project
	h, err := s.rest.Do(ctx, "list repositories", http.MethodGet, "/projects?"+q.Encode(), token, nil, &projects)
	if err != nil {
		return provider.RepositoryPage{}, err
	}
	out := provider.RepositoryPage{Items: make([]provider.Repository, 0, len(projects)), NextPage: nextPage(h)}
	for _, p := range projects {
		out.Items = append(out.Items, toRepository(p))
	}
	return out, nil
}

func (s *strategy) GetRepository(ctx context.Context, token, fullName string) (provider.Repository, error) {
	var p project
	if _, err := s.rest.Do(ctx, "get repository", http.MethodGet, projectPath(fullName), token, nil, &p); err != nil {
		return provider.Repository{}, err
	}
	return toRepository(p), nil
}

func (s *strategy) ListBranches(ctx context.Context, token, fullName string) ([]provider.Branch, error) {
	var out []provider.Branch
	page := 1
	for page > 0 {
		var branches []branch
		path := projectPath(fullName) + "/repository/branches?" + pageQuery(page, 100).Encode()
		h, err := s.rest.Do(ctx, "list branches", http.MethodGet, path, token, nil, &branches)
		if err != nil {
			return nil, err
		}
		for _, b := range branches {
			out = append(out, provider.Branch{Name: b.Name, SHA: b.Commit.ID})
		}
		page = nextPage(h)
	}
	return out, nil
}

func (s *strategy) ListCommits(ctx context.Context, token string, opt provider.ListCommitsOptions) (provider.CommitPage, error) {
	q := pageQuery(opt.Page, opt.PerPage)
	if opt.Branch != "" {
		q.Set("ref_name", opt.Branch)
	}

	var commits []commit
	path := projectPath(opt.FullName) + "/repository/commits?" + q.Encode()
	h, err := s.rest.Do(ctx, "list commits", http.MethodGet, path, token, nil, &commits)
	if err != nil {
		return provider.CommitPage{}, err
	}
	out := provider.CommitPage{Items: make([]provider.Commit, 0, len(commits)), NextPage: nextPage(h)}
	for _, c := range commits {
		out.Items = append(out.Items, toCommit(c))
	}
	return out, nil
}

func (s *strategy) GetCommit(ctx context.Context, token, fullName, sha string) (provider.Commit, error) {
	var c commit
	path := projectPath(fullName) + "/repository/commits/" + url.PathEscape(sha)
	if _, err := s.rest.Do(ctx, "get commit", http.MethodGet, path, token, nil, &c); err != nil {
		return provider.Commit{}, err
	}
	return toCommit(c), nil
}

func (s *strategy) ListPullRequests(ctx context.Context, token string, opt provider.ListPullRequestsOptions) (provider.PullRequestPage, error) {
	q := pageQuery(opt.Page, opt.PerPage)
	q.Set("state", "all")
	if opt.OpenOnly {
		q.Set("state", "opened")
	}
	q.Set("order_by", "updated_at")

	var mrs []mergeRequest
	path := projectPath(opt.FullName) + "/merge_requests?" + q.Encode()
	h, err := s.rest.Do(ctx, "list merge requests", http.MethodGet, path, token, nil, &mrs)
	if err != nil {
		return provider.PullRequestPage{}, err
	}
	out := provider.PullRequestPage{Items: make([]provider.PullRequest, 0, len(mrs)), NextPage: nextPage(h)}
	for _, mr := range mrs {
		out.Items = append(out.Items, toPullRequest(mr))
	}
	return out, nil
}

func (s *strategy) GetPullRequest(ctx context.Context, token, fullName string, number int) (provider.PullRequest, error) {
	var mr mergeRequest
	path := projectPath(fullName) + "/merge_requests/" + strconv.Itoa(number)
	if _, err := s.rest.Do(ctx, "get merge request", http.MethodGet, path, token, nil, &mr); err != nil {
		return provider.PullRequest{}, err
	}
	return toPullRequest(mr), nil
}

func (s *strategy) RegisterWebhook(ctx context.Context, token string, opt provider.RegisterWebhookOptions) (string, error) {
	body := map[string]any{
		"url":                     opt.URL,
		"token":                   opt.Secret,
		"push_events":             false,
		"merge_requests_events":   false,
		"enable_ssl_verification": true,
	}
	for _, k := range opt.Events {
		switch k {
		case model.EventKindPush:
			body["push_events"] = true
		case model.EventKindPullRequest:
			body["merge_requests_events"] = true
		}
	}

	var created hook
	if _, err := s.rest.Do(ctx, "create webhook", http.MethodPost, projectPath(opt.FullName)+"/hooks", token, body, &created); err != nil {
		return "", err
	}
	return strconv.FormatInt(created.ID, 10), nil
}

func (s *strategy) DeleteWebhook(ctx context.Context, token, fullName, hookID string) error {
	path := projectPath(fullName) + "/hooks/" + url.PathEscape(hookID)
	_, err := s.rest.Do(ctx, "delete webhook", http.MethodDelete, path, token, nil, nil)
	if provider.StatusCode(err) == http.StatusNotFound {
		return nil
	}
	return err
}

func toRepository(p project) provider.Repository {
	return provider.Repository{
		ID:            strconv.FormatInt(p.ID, 10),
		Name:          p.Name,
		FullName:      p.PathWithNamespace,
		URL:           p.WebURL,
		DefaultBranch: p.DefaultBranch,
		Private:       p.Visibility != "public",
	}
}

func toCommit(c commit) provider.Commit {
	return provider.Commit{
		SHA:         c.ID,
		Message:     c.Message,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		URL:         c.WebURL,
		CommittedAt: c.CommittedDate.UTC(),
	}
}

func toPullRequest(mr mergeRequest) provider.PullRequest {
	pr := provider.PullRequest{
		Number:       mr.IID,
		Title:        mr.Title,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		HeadSHA:      mr.SHA,
		AuthorLogin:  mr.Author.Username,
		URL:          mr.WebURL,
		CreatedAt:    mr.CreatedAt,
		UpdatedAt:    mr.UpdatedAt,
	}
	switch mr.State {
	case "merged":
		pr.State = model.PullRequestMerged
	case "closed", "locked":
		pr.State = model.PullRequestClosed
	default:
		pr.State = model.PullRequestOpen
	}
	if mr.MergedAt != nil {
		pr.MergedAt = *mr.MergedAt
	}
	if mr.ClosedAt != nil {
		pr.ClosedAt = *mr.ClosedAt
	}
	return pr
}
