package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/endpoints"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	name       = "bitbucket"
	defaultAPI = "https://api.bitbucket.org/2.0"
)

type strategy struct {
	oauth provider.OAuthClient
	rest  provider.RESTClient
}

func New(cfg provider.Config) (provider.Strategy, error) {
	api := strings.TrimRight(cfg.APIURL, "/")
	if api == "" {
		api = defaultAPI
	}
	if _, err := url.Parse(api); err != nil {
		return nil, fmt.Errorf("bitbucket: parse api url: %w", err)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"repository", "pullrequest", "webhook"}
	}

	httpClient := cfg.HTTPClient()
	return &strategy{
		oauth: provider.NewOAuthClient(name, cfg, endpoints.Bitbucket, httpClient),
		rest:  provider.RESTClient{Provider: name, BaseURL: api, HTTP: httpClient},
	}, nil
}

func (s *strategy) Name() model.Provider { return model.ProviderBitbucket }

func (s *strategy) AuthCodeURL(state, redirectURL string) string {
	return s.oauth.AuthCodeURL(state, redirectURL)
}

func (s *strategy) Exchange(ctx context.Context, code, redirectURL string) (provider.Token, error) {
	return s.oauth.Exchange(ctx, code, redirectURL)
}

func (s *strategy) Refresh(ctx context.Context, refreshToken string) (provider.Token, error) {
	return s.oauth.Refresh(ctx, refreshToken)
}

type link struct {
	Href string `json:"href"`
}

type links struct {
	HTML link `json:"html"`
}

type user struct {
	DisplayName string `json:"display_name"`
	Nickname    string `json:"nickname"`
}

type repository struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	Links      links  `json:"links"`
	MainBranch struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
}

type commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Links   links     `json:"links"`
	Author  struct {
		Raw  string `json:"raw"`
		User *user  `json:"user"`
	} `json:"author"`
}

type ref struct {
	Branch struct {
		Name string `json:"name"`
	} `json:"branch"`
	Commit struct {
		Hash string `json:"hash"`
	} `json:"commit"`
}

type pullRequest struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	Source      ref       `json:"source"`
	Destination ref       `json:"destination"`
	Author      user      `json:"author"`
	Links       links     `json:"links"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

type branch struct {
	Name   string `json:"name"`
	Target struct {
		Hash string `json:"hash"`
	} `json:"target"`
}

// page is Bitbucket's cursor envelope. Next is an absolute URL.
type page[T any] struct {
	Values []T    `json:"values"`
	Next   string `json:"next"`
}

// nextPage extracts the page number from a "next" link.
func nextPage(next string) int {
	if next == "" {
		return 0
	}
	u, err := url.Parse(next)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(u.Query().Get("page"))
	return n
}

func repoPath(fullName string) string {
	workspace, slug, _ := strings.Cut(fullName, "/")
	return "/repositories/" + url.PathEscape(workspace) + "/" + url.PathEscape(slug)
}

func pageQuery(p, perPage int) url.Values {
	q := url.Values{}
	if p > 0 {
		q.Set("page", strconv.Itoa(p))
	}
	if perPage > 0 {
		q.Set("pagelen", strconv.Itoa(perPage))
	}
	return q
}

func (s *strategy) ListRepositories(ctx context.Context, token string, p int) (provider.RepositoryPage, error) {
	q := pageQuery(p, 50)
	q.Set("role", "member")

	var resp page[repository]
	if _, err := s.rest.Do(ctx, "list repositories", http.MethodGet, "/repositories?"+q.Encode(), token, nil, &resp); err != nil {
		return provider.RepositoryPage{}, err
	}
	out := provider.RepositoryPage{Items: make([]provider.Repository, 0, len(resp.Values)), NextPage: nextPage(resp.Next)}
	for _, r := range resp.Values {
		out.Items = append(out.Items, toRepository(r))
	}
	return out, nil
}

func (s *strategy) GetRepository(ctx context.Context, token, fullName string) (provider.Repository, error) {
	var r repository
	if _, err := s.rest.Do(ctx, "get repository", http.MethodGet, repoPath(fullName), token, nil, &r); err != nil {
		return provider.Repository{}, err
	}
	return toRepository(r), nil
}

func (s *strategy) ListBranches(ctx context.Context, token, fullName string) ([]provider.Branch, error) {
	var out []provider.Branch
	next := repoPath(fullName) + "/refs/branches?pagelen=100"
	for next != "" {
		var resp page[branch]
		if _, err := s.rest.Do(ctx, "list branches", http.MethodGet, next, token, nil, &resp); err != nil {
			return nil, err
		}
		for _, b := range resp.Values {
			out = append(out, provider.Branch{Name: b.Name, SHA: b.Target.Hash})
		}
		next = resp.Next
	}
	return out, nil
}

func (s *strategy) ListCommits(ctx context.Context, token string, opt provider.ListCommitsOptions) (provider.CommitPage, error) {
	path := repoPath(opt.FullName) + "/commits"
	if opt.Branch != "" {
		path += "/" + url.PathEscape(opt.Branch)
	}
	path += "?" + pageQuery(opt.Page, opt.PerPage).Encode()

	var resp page[commit]
	if _, err := s.rest.Do(ctx, "list commits", http.MethodGet, path, token, nil, &resp); err != nil {
		return provider.CommitPage{}, err
	}
	out := provider.CommitPage{Items: make([]provider.Commit, 0, len(resp.Values)), NextPage: nextPage(resp.Next)}
	for _, c := range resp.Values {
		out.Items = append(out.Items, toCommit(c))
	}
	return out, nil
}

func (s *strategy) GetCommit(ctx context.Context, token, fullName, sha string) (provider.Commit, error) {
	var c commit
	if _, err := s.rest.Do(ctx, "get commit", http.MethodGet, repoPath(fullName)+"/commit/"+url.PathEscape(sha), token, nil, &c); err != nil {
		return provider.Commit{}, err
	}
	return toCommit(c), nil
}

func (s *strategy) ListPullRequests(ctx context.Context, token string, opt provider.ListPullRequestsOptions) (provider.PullRequestPage, error) {
	q := pageQuery(opt.Page, opt.PerPage)
	if opt.OpenOnly {
		q.Set("state", "OPEN")
	} else {
		for _, st := range []string{"OPEN", "MERGED", "DECLINED", "SUPERSEDED"} {
			q.Add("state", st)
		}
	}

	var resp page[pullRequest]
	path := repoPath(opt.FullName) + "/pullrequests?" + q.Encode()
	if _, err := s.rest.Do(ctx, "list pull requests", http.MethodGet, path, token, nil, &resp); err != nil {
		return provider.PullRequestPage{}, err
	}
	out := provider.PullRequestPage{Items: make([]provider.PullRequest, 0, len(resp.Values)), NextPage: nextPage(resp.Next)}
	for _, pr := range resp.Values {
		out.Items = append(out.Items, toPullRequest(pr))
	}
	return out, nil
}

func (s *strategy) GetPullRequest(ctx context.Context, token, fullName string, number int) (provider.PullRequest, error) {
	var pr pullRequest
	path := repoPath(fullName) + "/pullrequests/" + strconv.Itoa(number)
	if _, err := s.rest.Do(ctx, "get pull request", http.MethodGet, path, token, nil, &pr); err != nil {
		return provider.PullRequest{}, err
	}
	return toPullRequest(pr), nil
}

func (s *strategy) RegisterWebhook(ctx context.Context, token string, opt provider.RegisterWebhookOptions) (string, error) {
	var events []string
	for _, k := range opt.Events {
		switch k {
		case model.EventKindPush:
			events = append(events, "repo:push")
		case model.EventKindPullRequest:
			events = append(events, "pullrequest:created", "pullrequest:updated", "pullrequest:fulfilled", "pullrequest:rejected")
		}
	}
	if len(events) == 0 {
		events = []string{"repo:push"}
	}

	body := map[string]any{
		"description": "git-integration",
		"url":         opt.URL,
		"active":      true,
		"secret":      opt.Secret,
		"events":      events,
	}
	var created struct {
		UUID string `json:"uuid"`
	}
	if _, err := s.rest.Do(ctx, "create webhook", http.MethodPost, repoPath(opt.FullName)+"/hooks", token, body, &created); err != nil {
		return "", err
	}
	return created.UUID, nil
}

func (s *strategy) DeleteWebhook(ctx context.Context, token, fullName, hookID string) error {
	_, err := s.rest.Do(ctx, "delete webhook", http.MethodDelete, repoPath(fullName)+"/hooks/"+url.PathEscape(hookID), token, nil, nil)
	if provider.StatusCode(err) == http.StatusNotFound {
		return nil
	}
	return err
}

func toRepository(r repository) provider.Repository {
	return provider.Repository{
		ID:            r.UUID,
		Name:          r.Name,
		FullName:      r.FullName,
		URL:           r.Links.HTML.Href,
		DefaultBranch: r.MainBranch.Name,
		Private:       r.IsPrivate,
	}
}

func toCommit(c commit) provider.Commit {
	out := provider.Commit{
		SHA:         c.Hash,
		Message:     c.Message,
		URL:         c.Links.HTML.Href,
		CommittedAt: c.Date.UTC(),
	}
	if addr, err := mail.ParseAddress(c.Author.Raw); err == nil {
		out.AuthorName = addr.Name
		out.AuthorEmail = addr.Address
	} else {
		out.AuthorName = c.Author.Raw
	}
	if c.Author.User != nil && c.Author.User.DisplayName != "" {
		out.AuthorName = c.Author.User.DisplayName
	}
	return out
}

func toPullRequest(pr pullRequest) provider.PullRequest {
	out := provider.PullRequest{
		Number:       pr.ID,
		Title:        pr.Title,
		SourceBranch: pr.Source.Branch.Name,
		TargetBranch: pr.Destination.Branch.Name,
		HeadSHA:      pr.Source.Commit.Hash,
		AuthorLogin:  pr.Author.Nickname,
		URL:          pr.Links.HTML.Href,
		CreatedAt:    pr.CreatedOn,
		UpdatedAt:    pr.UpdatedOn,
	}
	switch pr.State {
	case "MERGED":
		out.State = model.PullRequestMerged
		out.MergedAt = pr.UpdatedOn
	case "DECLINED", "SUPERSEDED":
		out.State = model.PullRequestClosed
		out.ClosedAt = pr.UpdatedOn
	default:
		out.State = model.PullRequestOpen
	}
	return out
}
