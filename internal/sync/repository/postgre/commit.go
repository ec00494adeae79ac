package postgre

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"git-integration/internal/model"
	"git-integration/internal/sync/repository"
)

const commitColumns = `connection_id, sha, branch, message, author_name, author_email,
	url, committed_at, recorded_at`

func scanCommit(row interface{ Scan(...any) error }) (model.Commit, error) {
	var c model.Commit
	err := row.Scan(&c.ConnectionID, &c.SHA, &c.Branch, &c.Message, &c.AuthorName, &c.AuthorEmail,
		&c.URL, &c.CommittedAt, &c.RecordedAt)
	return c, err
}

func (r *implRepository) UpsertCommits(ctx context.Context, commits []model.Commit) error {
	if len(commits) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertCommits.begin: %v", err)
		return repository.ErrFailedToInsert
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO commits (` + commitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (connection_id, sha) DO UPDATE SET
			branch = CASE WHEN commits.branch = '' THEN EXCLUDED.branch ELSE commits.branch END,
			message = EXCLUDED.message,
			author_name = EXCLUDED.author_name,
			author_email = EXCLUDED.author_email,
			url = EXCLUDED.url,
			committed_at = EXCLUDED.committed_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertCommits.prepare: %v", err)
		return repository.ErrFailedToInsert
	}
	defer stmt.Close()

	for _, c := range commits {
		if _, err := stmt.ExecContext(ctx, c.ConnectionID, c.SHA, c.Branch, c.Message, c.AuthorName,
			c.AuthorEmail, c.URL, c.CommittedAt, c.RecordedAt); err != nil {
			r.l.Errorf(ctx, "sync.repository.postgre.UpsertCommits.exec %s: %v", c.SHA, err)
			return repository.ErrFailedToInsert
		}
	}
	if err := tx.Commit(); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertCommits.commit: %v", err)
		return repository.ErrFailedToInsert
	}
	return nil
}

func (r *implRepository) KnownSHAs(ctx context.Context, connectionID string, shas []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(shas) == 0 {
		return known, nil
	}

	const query = `SELECT sha FROM commits WHERE connection_id = $1 AND sha = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, connectionID, pq.Array(shas))
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.KnownSHAs: %v", err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			r.l.Errorf(ctx, "sync.repository.postgre.KnownSHAs.scan: %v", err)
			return nil, repository.ErrFailedToList
		}
		known[sha] = true
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.KnownSHAs.rows: %v", err)
		return nil, repository.ErrFailedToList
	}
	return known, nil
}

func (r *implRepository) GetCommit(ctx context.Context, connectionID, sha string) (model.Commit, error) {
	const query = `SELECT ` + commitColumns + ` FROM commits WHERE connection_id = $1 AND sha = $2`

	c, err := scanCommit(r.db.QueryRowContext(ctx, query, connectionID, sha))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Commit{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "sync.repository.postgre.GetCommit: %v", err)
		return model.Commit{}, repository.ErrFailedToGet
	}
	return c, nil
}

func (r *implRepository) ListCommits(ctx context.Context, opt repository.ListCommitsOptions) ([]model.Commit, error) {
	const query = `SELECT ` + commitColumns + ` FROM commits
		WHERE connection_id = $1 AND ($2 = '' OR branch = $2)
		ORDER BY committed_at DESC, sha
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, opt.ConnectionID, opt.Branch, limitOrAll(opt.Limit), opt.Offset)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.ListCommits: %v", err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	out := []model.Commit{}
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			r.l.Errorf(ctx, "sync.repository.postgre.ListCommits.scan: %v", err)
			return nil, repository.ErrFailedToList
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.ListCommits.rows: %v", err)
		return nil, repository.ErrFailedToList
	}
	return out, nil
}

// limitOrAll turns a non-positive limit into NULL, which Postgres reads as LIMIT ALL.
func limitOrAll(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}
