// Package providertest provides an in-memory provider.Strategy for tests.
package providertest

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

// Fake is a scriptable Strategy. Signatures are valid when the
// "X-Fake-Signature" header equals the secret. Deliveries are described by
// "X-Fake-Event-ID", "X-Fake-Event" and optionally "X-Fake-Kind", "X-Fake-Branch" and
// "X-Fake-PR".
type Fake struct {
	ProviderName model.Provider

	mu sync.Mutex

	// ExchangeFunc and RefreshFunc override the default token behaviour.
	ExchangeFunc func(ctx context.Context, code string) (provider.Token, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (provider.Token, error)

	// Commits are served newest first, PerPage at a time.
	Commits      map[string][]provider.Commit
	PullRequests map[string][]provider.PullRequest
	Repositories []provider.Repository
	Branches     map[string][]provider.Branch

	// ListCommitsErr, when set, is returned by the call with that zero-based index.
	ListCommitsErr map[int]error
	RegisterErr    error
	DeleteErr      error

	ListCommitsCalls []provider.ListCommitsOptions
	ExchangeCalls    int
	RefreshCalls     int
	RegisteredHooks  []provider.RegisterWebhookOptions
	DeletedHooks     []string
}

var _ provider.Strategy = (*Fake)(nil)

const (
	HeaderSignature = "X-Fake-Signature"
	HeaderEventID   = "X-Fake-Event-ID"
	HeaderEvent     = "X-Fake-Event"
	HeaderKind      = "X-Fake-Kind"
	HeaderBranch    = "X-Fake-Branch"
	HeaderPRNumber  = "X-Fake-PR"
)

// New returns a Fake answering as p.
func New(p model.Provider) *Fake {
	return &Fake{
		ProviderName: p,
		Commits:      map[string][]provider.Commit{},
		PullRequests: map[string][]provider.PullRequest{},
		Branches:     map[string][]provider.Branch{},
	}
}

func (f *Fake) Name() model.Provider { return f.ProviderName }

func (f *Fake) AuthCodeURL(state, redirectURL string) string {
	return "https://" + string(f.ProviderName) + ".test/authorize?state=" + state + "&redirect_uri=" + redirectURL
}

func (f *Fake) Exchange(ctx context.Context, code, _ string) (provider.Token, error) {
	f.mu.Lock()
	f.ExchangeCalls++
	fn := f.ExchangeFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, code)
	}
	return provider.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code}, nil
}

func (f *Fake) Refresh(ctx context.Context, refreshToken string) (provider.Token, error) {
	f.mu.Lock()
	f.RefreshCalls++
	fn := f.RefreshFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, refreshToken)
	}
	return provider.Token{AccessToken: "refreshed", RefreshToken: refreshToken}, nil
}

func (f *Fake) ListRepositories(_ context.Context, _ string, _ int) (provider.RepositoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return provider.RepositoryPage{Items: append([]provider.Repository(nil), f.Repositories...)}, nil
}

func (f *Fake) GetRepository(_ context.Context, _ string, fullName string) (provider.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Repositories {
		if r.FullName == fullName {
			return r, nil
		}
	}
	return provider.Repository{}, provider.Classify(string(f.ProviderName), "get repository", http.StatusNotFound, "not found")
}

func (f *Fake) ListBranches(_ context.Context, _ string, fullName string) ([]provider.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.Branch(nil), f.Branches[fullName]...), nil
}

// SetCommits replaces the branch history. Commits must be given newest first.
func (f *Fake) SetCommits(fullName, branch string, commits ...provider.Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commits[fullName+"@"+branch] = commits
}

func (f *Fake) ListCommits(_ context.Context, _ string, opt provider.ListCommitsOptions) (provider.CommitPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.ListCommitsCalls)
	f.ListCommitsCalls = append(f.ListCommitsCalls, opt)
	if err := f.ListCommitsErr[call]; err != nil {
		return provider.CommitPage{}, err
	}

	all := f.historyFrom(opt.FullName, opt.Branch)
	page, perPage := opt.Page, opt.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = len(all)
	}
	start := (page - 1) * perPage
	if start >= len(all) {
		return provider.CommitPage{}, nil
	}
	end := min(start+perPage, len(all))

	out := provider.CommitPage{Items: append([]provider.Commit(nil), all[start:end]...)}
	if end < len(all) {
		out.NextPage = page + 1
	}
	return out, nil
}

// historyFrom resolves ref as a branch first, then as a commit SHA on any
// branch of the repository, serving that commit and everything older.
func (f *Fake) historyFrom(fullName, ref string) []provider.Commit {
	if all, ok := f.Commits[fullName+"@"+ref]; ok {
		return all
	}
	prefix := fullName + "@"
	for key, commits := range f.Commits {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		for i, c := range commits {
			if c.SHA == ref {
				return commits[i:]
			}
		}
	}
	return nil
}

func (f *Fake) GetCommit(_ context.Context, _ string, fullName, sha string) (provider.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, commits := range f.Commits {
		if !strings.HasPrefix(key, fullName+"@") {
			continue
		}
		for _, c := range commits {
			if c.SHA == sha {
				return c, nil
			}
		}
	}
	return provider.Commit{}, provider.Classify(string(f.ProviderName), "get commit", http.StatusNotFound, "not found")
}

// SetPullRequests replaces the pull requests of a repository.
func (f *Fake) SetPullRequests(fullName string, prs ...provider.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PullRequests[fullName] = prs
}

func (f *Fake) ListPullRequests(_ context.Context, _ string, opt provider.ListPullRequestsOptions) (provider.PullRequestPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out provider.PullRequestPage
	for _, pr := range f.PullRequests[opt.FullName] {
		if opt.OpenOnly && pr.State != model.PullRequestOpen {
			continue
		}
		out.Items = append(out.Items, pr)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].Number < out.Items[j].Number })
	return out, nil
}

func (f *Fake) GetPullRequest(_ context.Context, _ string, fullName string, number int) (provider.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.PullRequests[fullName] {
		if pr.Number == number {
			return pr, nil
		}
	}
	return provider.PullRequest{}, provider.Classify(string(f.ProviderName), "get pull request", http.StatusNotFound, "not found")
}

func (f *Fake) RegisterWebhook(_ context.Context, _ string, opt provider.RegisterWebhookOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterErr != nil {
		return "", f.RegisterErr
	}
	f.RegisteredHooks = append(f.RegisteredHooks, opt)
	return "hook-" + opt.FullName, nil
}

func (f *Fake) DeleteWebhook(_ context.Context, _ string, _ string, hookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.DeletedHooks = append(f.DeletedHooks, hookID)
	return nil
}

func (f *Fake) VerifySignature(_ []byte, headers http.Header, secret string) bool {
	return secret != "" && headers.Get(HeaderSignature) == secret
}

func (f *Fake) ParseDelivery(headers http.Header, _ []byte) (provider.Delivery, error) {
	id, eventType := headers.Get(HeaderEventID), headers.Get(HeaderEvent)
	if id == "" || eventType == "" {
		return provider.Delivery{}, provider.ErrMalformedPayload
	}
	kind := model.EventKind(headers.Get(HeaderKind))
	if kind == "" {
		kind = model.EventKind(eventType)
	}
	switch kind {
	case model.EventKindPush, model.EventKindPullRequest, model.EventKindPing:
	default:
		kind = model.EventKindUnknown
	}
	number, _ := strconv.Atoi(headers.Get(HeaderPRNumber))
	return provider.Delivery{
		EventID:   id,
		EventType: eventType,
		Kind:      kind,
		Branch:    headers.Get(HeaderBranch),
		PRNumber:  number,
	}, nil
}

// Snapshot copies the call counters under the lock.
func (f *Fake) Snapshot() (exchanges, refreshes int, hooks []provider.RegisterWebhookOptions, deleted []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ExchangeCalls, f.RefreshCalls,
		append([]provider.RegisterWebhookOptions(nil), f.RegisteredHooks...),
		append([]string(nil), f.DeletedHooks...)
}
