package postgre

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"git-integration/internal/model"
)

const uniqueViolation = "23505"

const columns = `id, user_id, project_id, provider,
	repository_name, repository_full_name, repository_url, default_branch,
	access_token, refresh_token, token_expiry, token_version,
	webhook_id, webhook_secret, webhook_events,
	active, last_sync_at, last_sync_cursor, sync_status, last_sync_error,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(row scanner) (model.GitConnection, error) {
	var (
		c           model.GitConnection
		provider    string
		syncStatus  string
		events      pq.StringArray
		tokenExpiry sql.NullTime
		lastSyncAt  sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.ProjectID, &provider,
		&c.RepositoryName, &c.RepositoryFullName, &c.RepositoryURL, &c.DefaultBranch,
		&c.AccessToken, &c.RefreshToken, &tokenExpiry, &c.TokenVersion,
		&c.WebhookID, &c.WebhookSecret, &events,
		&c.Active, &lastSyncAt, &c.LastSyncCursor, &syncStatus, &c.LastSyncError,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.GitConnection{}, err
	}

	c.Provider = model.Provider(provider)
	c.SyncStatus = model.SyncStatus(syncStatus)
	c.TokenExpiry = tokenExpiry.Time
	c.LastSyncAt = lastSyncAt.Time
	for _, e := range events {
		c.WebhookEvents = append(c.WebhookEvents, model.EventKind(e))
	}
	return c, nil
}

func eventsArray(kinds []model.EventKind) pq.StringArray {
	out := make(pq.StringArray, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
