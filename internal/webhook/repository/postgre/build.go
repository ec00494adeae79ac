package postgre

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lib/pq"

	"git-integration/internal/model"
)

const uniqueViolation = "23505"

const columns = `id, connection_id, provider, provider_event_id, event_type,
	kind, branch, pr_number, action, payload, headers, received_at, sequence,
	processed_at, status, error_message, retry_count, last_retry_at,
	next_attempt_at, processing_duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (model.WebhookEvent, error) {
	var (
		e           model.WebhookEvent
		provider    string
		kind        string
		status      string
		headers     []byte
		processedAt sql.NullTime
		lastRetryAt sql.NullTime
		nextAttempt sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.ConnectionID, &provider, &e.ProviderEventID, &e.EventType,
		&kind, &e.Branch, &e.PRNumber, &e.Action, &e.Payload, &headers, &e.ReceivedAt, &e.Sequence,
		&processedAt, &status, &e.ErrorMessage, &e.RetryCount, &lastRetryAt,
		&nextAttempt, &e.ProcessingDurationMs,
	)
	if err != nil {
		return model.WebhookEvent{}, err
	}

	e.Provider = model.Provider(provider)
	e.Kind = model.EventKind(kind)
	e.Status = model.WebhookStatus(status)
	e.ProcessedAt = processedAt.Time
	e.LastRetryAt = lastRetryAt.Time
	e.NextAttemptAt = nextAttempt.Time
	if len(headers) > 0 {
		e.Headers = make(http.Header)
		if err := json.Unmarshal(headers, &e.Headers); err != nil {
			return model.WebhookEvent{}, err
		}
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]model.WebhookEvent, error) {
	defer rows.Close()

	out := []model.WebhookEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
