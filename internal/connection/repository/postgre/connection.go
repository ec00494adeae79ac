package postgre

import (
	"context"
	"database/sql"
	"errors"

	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
)

func (r *implRepository) Create(ctx context.Context, conn model.GitConnection) (model.GitConnection, error) {
	if conn.TokenVersion == 0 {
		conn.TokenVersion = 1
	}
	const query = `INSERT INTO git_connections (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query,
		conn.ID, conn.UserID, conn.ProjectID, string(conn.Provider),
		conn.RepositoryName, conn.RepositoryFullName, conn.RepositoryURL, conn.DefaultBranch,
		conn.AccessToken, conn.RefreshToken, nullTime(conn.TokenExpiry), conn.TokenVersion,
		conn.WebhookID, conn.WebhookSecret, eventsArray(conn.WebhookEvents),
		conn.Active, nullTime(conn.LastSyncAt), conn.LastSyncCursor, string(conn.SyncStatus), conn.LastSyncError,
		conn.CreatedAt, conn.UpdatedAt,
	)
	created, err := scanConnection(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.GitConnection{}, repository.ErrDuplicate
		}
		r.l.Errorf(ctx, "connection.repository.postgre.Create: %v", err)
		return model.GitConnection{}, repository.ErrFailedToInsert
	}
	return created, nil
}

func (r *implRepository) Detail(ctx context.Context, id string) (model.GitConnection, error) {
	const query = `SELECT ` + columns + ` FROM git_connections WHERE id = $1 AND deleted_at IS NULL`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.GitConnection{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "connection.repository.postgre.Detail: %v", err)
		return model.GitConnection{}, repository.ErrFailedToGet
	}
	return c, nil
}

func (r *implRepository) FindByIdentity(ctx context.Context, opt repository.IdentityOptions) (model.GitConnection, error) {
	const query = `SELECT ` + columns + ` FROM git_connections
		WHERE project_id = $1 AND provider = $2 AND repository_full_name = $3 AND deleted_at IS NULL
		LIMIT 1`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, opt.ProjectID, string(opt.Provider), opt.RepositoryFullName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.GitConnection{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "connection.repository.postgre.FindByIdentity: %v", err)
		return model.GitConnection{}, repository.ErrFailedToGet
	}
	return c, nil
}

func (r *implRepository) ListByProject(ctx context.Context, projectID string) ([]model.GitConnection, error) {
	const query = `SELECT ` + columns + ` FROM git_connections
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		r.l.Errorf(ctx, "connection.repository.postgre.ListByProject: %v", err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	var out []model.GitConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			r.l.Errorf(ctx, "connection.repository.postgre.ListByProject.scan: %v", err)
			return nil, repository.ErrFailedToList
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "connection.repository.postgre.ListByProject.rows: %v", err)
		return nil, repository.ErrFailedToList
	}
	return out, nil
}

func (r *implRepository) Update(ctx context.Context, opt repository.UpdateOptions) (model.GitConnection, error) {
	const query = `UPDATE git_connections SET
			user_id = $2, repository_name = $3, repository_full_name = $4, repository_url = $5,
			default_branch = $6, webhook_id = $7, webhook_secret = $8, webhook_events = $9,
			active = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query,
		opt.ID, opt.UserID, opt.RepositoryName, opt.RepositoryFullName, opt.RepositoryURL,
		opt.DefaultBranch, opt.WebhookID, opt.WebhookSecret, eventsArray(opt.WebhookEvents),
		opt.Active, opt.UpdatedAt,
	)
	c, err := scanConnection(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return model.GitConnection{}, repository.ErrNotFound
		case isUniqueViolation(err):
			return model.GitConnection{}, repository.ErrDuplicate
		}
		r.l.Errorf(ctx, "connection.repository.postgre.Update: %v", err)
		return model.GitConnection{}, repository.ErrFailedToUpdate
	}
	return c, nil
}

func (r *implRepository) UpdateTokens(ctx context.Context, opt repository.UpdateTokensOptions) (model.GitConnection, error) {
	const query = `UPDATE git_connections SET
			access_token = $3, refresh_token = $4, token_expiry = $5,
			token_version = token_version + 1, updated_at = $6
		WHERE id = $1 AND token_version = $2 AND deleted_at IS NULL
		RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query,
		opt.ID, opt.ExpectedVersion, opt.AccessToken, opt.RefreshToken, nullTime(opt.TokenExpiry), opt.UpdatedAt,
	)
	c, err := scanConnection(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.l.Errorf(ctx, "connection.repository.postgre.UpdateTokens: %v", err)
		return model.GitConnection{}, repository.ErrFailedToUpdate
	}

	// No row matched: either the connection is gone or the version moved.
	if _, err := r.Detail(ctx, opt.ID); err != nil {
		return model.GitConnection{}, err
	}
	return model.GitConnection{}, repository.ErrVersionConflict
}

func (r *implRepository) UpdateSyncState(ctx context.Context, opt repository.UpdateSyncStateOptions) error {
	const query = `UPDATE git_connections SET
			sync_status = $2,
			last_sync_cursor = CASE WHEN $3 = '' THEN last_sync_cursor ELSE $3 END,
			last_sync_at = COALESCE($4, last_sync_at),
			last_sync_error = $5,
			updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, opt.ID, string(opt.Status), opt.Cursor, nullTime(opt.SyncedAt), opt.LastError, opt.UpdatedAt)
	if err != nil {
		r.l.Errorf(ctx, "connection.repository.postgre.UpdateSyncState: %v", err)
		return repository.ErrFailedToUpdate
	}
	return expectOne(res)
}

func (r *implRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE git_connections SET active = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		r.l.Errorf(ctx, "connection.repository.postgre.SetActive: %v", err)
		return repository.ErrFailedToUpdate
	}
	return expectOne(res)
}

func (r *implRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE git_connections SET active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.l.Errorf(ctx, "connection.repository.postgre.Delete: %v", err)
		return repository.ErrFailedToDelete
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return repository.ErrFailedToUpdate
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
