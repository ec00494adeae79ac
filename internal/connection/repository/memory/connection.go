package memory

import (
	"context"
	"sort"
	"sync"

	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
)

type connectionRepo struct {
	mu      sync.RWMutex
	rows    map[string]model.GitConnection
	deleted map[string]bool
}

// New returns an in-process Repository, used by tests and storage.driver=memory.
func New() repository.Repository {
	return &connectionRepo{
		rows:    make(map[string]model.GitConnection),
		deleted: make(map[string]bool),
	}
}

func clone(c model.GitConnection) model.GitConnection {
	c.WebhookEvents = append([]model.EventKind(nil), c.WebhookEvents...)
	return c
}

func (r *connectionRepo) Create(_ context.Context, conn model.GitConnection) (model.GitConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[conn.ID]; ok {
		return model.GitConnection{}, repository.ErrDuplicate
	}
	if conn.HasRepository() {
		for id, c := range r.rows {
			if !r.deleted[id] && c.ProjectID == conn.ProjectID && c.Provider == conn.Provider && c.RepositoryFullName == conn.RepositoryFullName {
				return model.GitConnection{}, repository.ErrDuplicate
			}
		}
	}
	if conn.TokenVersion == 0 {
		conn.TokenVersion = 1
	}
	r.rows[conn.ID] = clone(conn)
	return clone(conn), nil
}

func (r *connectionRepo) Detail(_ context.Context, id string) (model.GitConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.rows[id]
	if !ok || r.deleted[id] {
		return model.GitConnection{}, repository.ErrNotFound
	}
	return clone(c), nil
}

func (r *connectionRepo) FindByIdentity(_ context.Context, opt repository.IdentityOptions) (model.GitConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, c := range r.rows {
		if r.deleted[id] {
			continue
		}
		if c.ProjectID == opt.ProjectID && c.Provider == opt.Provider && c.RepositoryFullName == opt.RepositoryFullName {
			return clone(c), nil
		}
	}
	return model.GitConnection{}, repository.ErrNotFound
}

func (r *connectionRepo) ListByProject(_ context.Context, projectID string) ([]model.GitConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.GitConnection
	for id, c := range r.rows {
		if !r.deleted[id] && c.ProjectID == projectID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *connectionRepo) Update(_ context.Context, opt repository.UpdateOptions) (model.GitConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[opt.ID]
	if !ok || r.deleted[opt.ID] {
		return model.GitConnection{}, repository.ErrNotFound
	}
	c.UserID = opt.UserID
	c.RepositoryName = opt.RepositoryName
	c.RepositoryFullName = opt.RepositoryFullName
	c.RepositoryURL = opt.RepositoryURL
	c.DefaultBranch = opt.DefaultBranch
	c.WebhookID = opt.WebhookID
	c.WebhookSecret = opt.WebhookSecret
	c.WebhookEvents = append([]model.EventKind(nil), opt.WebhookEvents...)
	c.Active = opt.Active
	c.UpdatedAt = opt.UpdatedAt
	r.rows[opt.ID] = c
	return clone(c), nil
}

func (r *connectionRepo) UpdateTokens(_ context.Context, opt repository.UpdateTokensOptions) (model.GitConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[opt.ID]
	if !ok || r.deleted[opt.ID] {
		return model.GitConnection{}, repository.ErrNotFound
	}
	if c.TokenVersion != opt.ExpectedVersion {
		return model.GitConnection{}, repository.ErrVersionConflict
	}
	c.AccessToken = opt.AccessToken
	c.RefreshToken = opt.RefreshToken
	c.TokenExpiry = opt.TokenExpiry
	c.TokenVersion++
	c.UpdatedAt = opt.UpdatedAt
	r.rows[opt.ID] = c
	return clone(c), nil
}

func (r *connectionRepo) UpdateSyncState(_ context.Context, opt repository.UpdateSyncStateOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[opt.ID]
	if !ok || r.deleted[opt.ID] {
		return repository.ErrNotFound
	}
	c.SyncStatus = opt.Status
	if opt.Cursor != "" {
		c.LastSyncCursor = opt.Cursor
	}
	if !opt.SyncedAt.IsZero() {
		c.LastSyncAt = opt.SyncedAt
	}
	c.LastSyncError = opt.LastError
	c.UpdatedAt = opt.UpdatedAt
	r.rows[opt.ID] = c
	return nil
}

func (r *connectionRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[id]
	if !ok || r.deleted[id] {
		return repository.ErrNotFound
	}
	c.Active = active
	r.rows[id] = c
	return nil
}

func (r *connectionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok || r.deleted[id] {
		return repository.ErrNotFound
	}
	c := r.rows[id]
	c.Active = false
	r.rows[id] = c
	r.deleted[id] = true
	return nil
}
