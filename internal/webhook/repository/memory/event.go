package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/webhook/repository"
)

type eventRepo struct {
	mu     sync.Mutex
	seq    int64
	rows   map[string]model.WebhookEvent
	byKey  map[string]string
	byConn map[string][]string
}

// New returns an in-process Repository.
func New() repository.Repository {
	return &eventRepo{
		rows:   make(map[string]model.WebhookEvent),
		byKey:  make(map[string]string),
		byConn: make(map[string][]string),
	}
}

func dedupKey(connectionID, providerEventID string) string {
	return connectionID + "\x00" + providerEventID
}

func clone(e model.WebhookEvent) model.WebhookEvent {
	e.Payload = append([]byte(nil), e.Payload...)
	e.Headers = e.Headers.Clone()
	return e
}

func (r *eventRepo) Create(_ context.Context, e model.WebhookEvent) (model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dedupKey(e.ConnectionID, e.ProviderEventID)
	if id, ok := r.byKey[key]; ok {
		return clone(r.rows[id]), repository.ErrDuplicate
	}

	r.seq++
	e.Sequence = r.seq
	if e.Status == "" {
		e.Status = model.WebhookPending
	}
	r.rows[e.ID] = clone(e)
	r.byKey[key] = e.ID
	r.byConn[e.ConnectionID] = append(r.byConn[e.ConnectionID], e.ID)
	return clone(e), nil
}

func (r *eventRepo) Detail(_ context.Context, id string) (model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok {
		return model.WebhookEvent{}, repository.ErrNotFound
	}
	return clone(e), nil
}

func (r *eventRepo) List(_ context.Context, opt repository.ListOptions) ([]model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byConn[opt.ConnectionID]
	out := make([]model.WebhookEvent, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		e := r.rows[ids[i]]
		if opt.Status != "" && e.Status != opt.Status {
			continue
		}
		out = append(out, clone(e))
	}

	if opt.Offset >= len(out) {
		return []model.WebhookEvent{}, nil
	}
	out = out[opt.Offset:]
	if opt.Limit > 0 && len(out) > opt.Limit {
		out = out[:opt.Limit]
	}
	return out, nil
}

// head must be called with the lock held.
func (r *eventRepo) head(connectionID string) (model.WebhookEvent, bool) {
	for _, id := range r.byConn[connectionID] {
		if e := r.rows[id]; !e.Status.Terminal() {
			return e, true
		}
	}
	return model.WebhookEvent{}, false
}

func (r *eventRepo) Head(_ context.Context, connectionID string) (model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.head(connectionID)
	if !ok {
		return model.WebhookEvent{}, repository.ErrNotFound
	}
	return clone(e), nil
}

func (r *eventRepo) Claim(_ context.Context, id string, _ time.Time) (model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok {
		return model.WebhookEvent{}, repository.ErrNotFound
	}
	if e.Status != model.WebhookPending {
		return model.WebhookEvent{}, repository.ErrNotClaimable
	}
	for _, sid := range r.byConn[e.ConnectionID] {
		if r.rows[sid].Status == model.WebhookProcessing {
			return model.WebhookEvent{}, repository.ErrNotClaimable
		}
	}

	e.Status = model.WebhookProcessing
	r.rows[id] = e
	return clone(e), nil
}

func (r *eventRepo) Transition(_ context.Context, opt repository.TransitionOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[opt.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Status != opt.From {
		return repository.ErrStaleTransition
	}

	e.Status = opt.To
	e.ErrorMessage = opt.ErrorMessage
	e.RetryCount = opt.RetryCount
	if !opt.LastRetryAt.IsZero() {
		e.LastRetryAt = opt.LastRetryAt
	}
	e.NextAttemptAt = opt.NextAttemptAt
	if !opt.ProcessedAt.IsZero() {
		e.ProcessedAt = opt.ProcessedAt
	}
	if opt.DurationMs > 0 {
		e.ProcessingDurationMs = opt.DurationMs
	}
	r.rows[opt.ID] = e
	return nil
}

func (r *eventRepo) DueConnections(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type due struct {
		conn string
		seq  int64
	}
	var found []due
	for conn := range r.byConn {
		if e, ok := r.head(conn); ok && e.Due(now) {
			found = append(found, due{conn: conn, seq: e.Sequence})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	out := make([]string, 0, len(found))
	for _, d := range found {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, d.conn)
	}
	return out, nil
}

func (r *eventRepo) RequeueProcessing(_ context.Context, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.rows {
		if e.Status == model.WebhookProcessing {
			e.Status = model.WebhookPending
			r.rows[id] = e
			n++
		}
	}
	return n, nil
}
