package postgre

import (
	"context"
	"database/sql"
	"errors"

	"git-integration/internal/model"
	"git-integration/internal/sync/repository"
)

func (r *implRepository) GetCursor(ctx context.Context, connectionID, branch string) (model.SyncCursor, error) {
	const query = `SELECT connection_id, branch, sha, committed_at, backfill_from, updated_at
		FROM sync_cursors WHERE connection_id = $1 AND branch = $2`

	var c model.SyncCursor
	err := r.db.QueryRowContext(ctx, query, connectionID, branch).
		Scan(&c.ConnectionID, &c.Branch, &c.SHA, &c.CommittedAt, &c.BackfillFrom, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SyncCursor{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "sync.repository.postgre.GetCursor: %v", err)
		return model.SyncCursor{}, repository.ErrFailedToGet
	}
	return c, nil
}

func (r *implRepository) SaveCursor(ctx context.Context, c model.SyncCursor) error {
	const query = `INSERT INTO sync_cursors (connection_id, branch, sha, committed_at, backfill_from, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (connection_id, branch) DO UPDATE SET
			sha = EXCLUDED.sha, committed_at = EXCLUDED.committed_at,
			backfill_from = EXCLUDED.backfill_from, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, c.ConnectionID, c.Branch, c.SHA, c.CommittedAt, c.BackfillFrom, c.UpdatedAt); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.SaveCursor: %v", err)
		return repository.ErrFailedToInsert
	}
	return nil
}
