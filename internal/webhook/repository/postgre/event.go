package postgre

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/webhook/repository"
)

func (r *implRepository) Create(ctx context.Context, e model.WebhookEvent) (model.WebhookEvent, error) {
	if e.Status == "" {
		e.Status = model.WebhookPending
	}
	headers, err := json.Marshal(e.Headers)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.Create.marshal: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToInsert
	}

	// sequence is assigned by the BIGSERIAL default.
	const query = `INSERT INTO webhook_events (
			id, connection_id, provider, provider_event_id, event_type,
			kind, branch, pr_number, action, payload, headers, received_at,
			status, retry_count, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (connection_id, provider_event_id) DO NOTHING
		RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query,
		e.ID, e.ConnectionID, string(e.Provider), e.ProviderEventID, e.EventType,
		string(e.Kind), e.Branch, e.PRNumber, e.Action, e.Payload, headers, e.ReceivedAt,
		string(e.Status), e.RetryCount, nullTime(e.NextAttemptAt),
	)
	created, err := scanEvent(row)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		r.l.Errorf(ctx, "webhook.repository.postgre.Create: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToInsert
	}

	const existingQuery = `SELECT ` + columns + ` FROM webhook_events
		WHERE connection_id = $1 AND provider_event_id = $2`
	existing, err := scanEvent(r.db.QueryRowContext(ctx, existingQuery, e.ConnectionID, e.ProviderEventID))
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.Create.existing: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToInsert
	}
	return existing, repository.ErrDuplicate
}

func (r *implRepository) Detail(ctx context.Context, id string) (model.WebhookEvent, error) {
	const query = `SELECT ` + columns + ` FROM webhook_events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WebhookEvent{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "webhook.repository.postgre.Detail: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToGet
	}
	return e, nil
}

func (r *implRepository) List(ctx context.Context, opt repository.ListOptions) ([]model.WebhookEvent, error) {
	limit := opt.Limit
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + columns + ` FROM webhook_events
		WHERE connection_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY sequence DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, opt.ConnectionID, string(opt.Status), limit, opt.Offset)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.List: %v", err)
		return nil, repository.ErrFailedToList
	}
	out, err := scanEvents(rows)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.List.scan: %v", err)
		return nil, repository.ErrFailedToList
	}
	return out, nil
}

func (r *implRepository) Head(ctx context.Context, connectionID string) (model.WebhookEvent, error) {
	const query = `SELECT ` + columns + ` FROM webhook_events
		WHERE connection_id = $1 AND status IN ('PENDING', 'PROCESSING')
		ORDER BY sequence
		LIMIT 1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, connectionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WebhookEvent{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "webhook.repository.postgre.Head: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToGet
	}
	return e, nil
}

func (r *implRepository) Claim(ctx context.Context, id string, at time.Time) (model.WebhookEvent, error) {
	// The NOT EXISTS guard keeps a connection to one in-flight event even
	// if two processes poll the same table.
	const query = `UPDATE webhook_events AS e SET status = 'PROCESSING', last_claimed_at = $2
		WHERE e.id = $1 AND e.status = 'PENDING'
		AND NOT EXISTS (
			SELECT 1 FROM webhook_events s
			WHERE s.connection_id = e.connection_id AND s.status = 'PROCESSING'
		)
		RETURNING ` + columns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, derr := r.Detail(ctx, id); errors.Is(derr, repository.ErrNotFound) {
				return model.WebhookEvent{}, repository.ErrNotFound
			}
			return model.WebhookEvent{}, repository.ErrNotClaimable
		}
		r.l.Errorf(ctx, "webhook.repository.postgre.Claim: %v", err)
		return model.WebhookEvent{}, repository.ErrFailedToUpdate
	}
	return e, nil
}

func (r *implRepository) Transition(ctx context.Context, opt repository.TransitionOptions) error {
	const query = `UPDATE webhook_events SET
			status = $3,
			error_message = $4,
			retry_count = $5,
			last_retry_at = COALESCE($6, last_retry_at),
			next_attempt_at = $7,
			processed_at = COALESCE($8, processed_at),
			processing_duration_ms = CASE WHEN $9 > 0 THEN $9 ELSE processing_duration_ms END
		WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query,
		opt.ID, string(opt.From), string(opt.To), opt.ErrorMessage, opt.RetryCount,
		nullTime(opt.LastRetryAt), nullTime(opt.NextAttemptAt), nullTime(opt.ProcessedAt), opt.DurationMs,
	)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.Transition: %v", err)
		return repository.ErrFailedToUpdate
	}
	n, err := res.RowsAffected()
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.Transition.rows: %v", err)
		return repository.ErrFailedToUpdate
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Detail(ctx, opt.ID); err != nil {
		return err
	}
	return repository.ErrStaleTransition
}

func (r *implRepository) DueConnections(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT h.connection_id FROM (
			SELECT DISTINCT ON (connection_id) connection_id, status, next_attempt_at, sequence
			FROM webhook_events
			WHERE status IN ('PENDING', 'PROCESSING')
			ORDER BY connection_id, sequence
		) h
		WHERE h.status = 'PENDING' AND (h.next_attempt_at IS NULL OR h.next_attempt_at <= $1)
		ORDER BY h.sequence
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.DueConnections: %v", err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.l.Errorf(ctx, "webhook.repository.postgre.DueConnections.scan: %v", err)
			return nil, repository.ErrFailedToList
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.DueConnections.rows: %v", err)
		return nil, repository.ErrFailedToList
	}
	return out, nil
}

func (r *implRepository) RequeueProcessing(ctx context.Context, at time.Time) (int, error) {
	const query = `UPDATE webhook_events SET status = 'PENDING', next_attempt_at = $1
		WHERE status = 'PROCESSING'`

	res, err := r.db.ExecContext(ctx, query, at)
	if err != nil {
		r.l.Errorf(ctx, "webhook.repository.postgre.RequeueProcessing: %v", err)
		return 0, repository.ErrFailedToUpdate
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, repository.ErrFailedToUpdate
	}
	return int(n), nil
}
