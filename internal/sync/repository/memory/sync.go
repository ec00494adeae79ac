package memory

import (
	"context"
	"sort"
	"sync"

	"git-integration/internal/model"
	"git-integration/internal/sync/repository"
)

type commitKey struct {
	conn string
	sha  string
}

type prKey struct {
	conn   string
	number int
}

type cursorKey struct {
	conn   string
	branch string
}

type syncRepo struct {
	mu      sync.RWMutex
	commits map[commitKey]model.Commit
	prs     map[prKey]model.PullRequest
	cursors map[cursorKey]model.SyncCursor
}

// New returns an in-process Repository.
func New() repository.Repository {
	return &syncRepo{
		commits: make(map[commitKey]model.Commit),
		prs:     make(map[prKey]model.PullRequest),
		cursors: make(map[cursorKey]model.SyncCursor),
	}
}

func (r *syncRepo) UpsertCommits(_ context.Context, commits []model.Commit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range commits {
		key := commitKey{c.ConnectionID, c.SHA}
		if existing, ok := r.commits[key]; ok && existing.Branch != "" {
			c.Branch = existing.Branch
			c.RecordedAt = existing.RecordedAt
		}
		r.commits[key] = c
	}
	return nil
}

func (r *syncRepo) KnownSHAs(_ context.Context, connectionID string, shas []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	known := make(map[string]bool)
	for _, sha := range shas {
		if _, ok := r.commits[commitKey{connectionID, sha}]; ok {
			known[sha] = true
		}
	}
	return known, nil
}

func (r *syncRepo) GetCommit(_ context.Context, connectionID, sha string) (model.Commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.commits[commitKey{connectionID, sha}]
	if !ok {
		return model.Commit{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *syncRepo) ListCommits(_ context.Context, opt repository.ListCommitsOptions) ([]model.Commit, error) {
	r.mu.RLock()
	var out []model.Commit
	for k, c := range r.commits {
		if k.conn != opt.ConnectionID || (opt.Branch != "" && c.Branch != opt.Branch) {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CommittedAt.Equal(out[j].CommittedAt) {
			return out[i].SHA < out[j].SHA
		}
		return out[i].CommittedAt.After(out[j].CommittedAt)
	})
	return window(out, opt.Offset, opt.Limit), nil
}

func (r *syncRepo) UpsertPullRequests(_ context.Context, prs []model.PullRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pr := range prs {
		key := prKey{pr.ConnectionID, pr.Number}
		if existing, ok := r.prs[key]; ok {
			pr.RecordedAt = existing.RecordedAt
		}
		r.prs[key] = pr
	}
	return nil
}

func (r *syncRepo) GetPullRequest(_ context.Context, connectionID string, number int) (model.PullRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pr, ok := r.prs[prKey{connectionID, number}]
	if !ok {
		return model.PullRequest{}, repository.ErrNotFound
	}
	return pr, nil
}

func (r *syncRepo) ListPullRequests(_ context.Context, opt repository.ListPullRequestsOptions) ([]model.PullRequest, error) {
	r.mu.RLock()
	var out []model.PullRequest
	for k, pr := range r.prs {
		if k.conn != opt.ConnectionID || (opt.State != "" && pr.State != opt.State) {
			continue
		}
		out = append(out, pr)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return window(out, opt.Offset, opt.Limit), nil
}

func (r *syncRepo) GetCursor(_ context.Context, connectionID, branch string) (model.SyncCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cursors[cursorKey{connectionID, branch}]
	if !ok {
		return model.SyncCursor{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *syncRepo) SaveCursor(_ context.Context, cursor model.SyncCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cursors[cursorKey{cursor.ConnectionID, cursor.Branch}] = cursor
	return nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
