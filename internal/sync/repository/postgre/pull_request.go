package postgre

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/sync/repository"
)

const prColumns = `connection_id, number, title, state, source_branch, target_branch,
	head_sha, author_login, url, created_at, updated_at, merged_at, closed_at, recorded_at`

func scanPullRequest(row interface{ Scan(...any) error }) (model.PullRequest, error) {
	var (
		pr                 model.PullRequest
		state              string
		createdAt, updated sql.NullTime
		mergedAt, closedAt sql.NullTime
	)
	err := row.Scan(&pr.ConnectionID, &pr.Number, &pr.Title, &state, &pr.SourceBranch, &pr.TargetBranch,
		&pr.HeadSHA, &pr.AuthorLogin, &pr.URL, &createdAt, &updated, &mergedAt, &closedAt, &pr.RecordedAt)
	if err != nil {
		return model.PullRequest{}, err
	}
	pr.State = model.PullRequestState(state)
	pr.CreatedAt = createdAt.Time
	pr.UpdatedAt = updated.Time
	pr.MergedAt = mergedAt.Time
	pr.ClosedAt = closedAt.Time
	return pr, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *implRepository) UpsertPullRequests(ctx context.Context, prs []model.PullRequest) error {
	if len(prs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertPullRequests.begin: %v", err)
		return repository.ErrFailedToInsert
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO pull_requests (` + prColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (connection_id, number) DO UPDATE SET
			title = EXCLUDED.title,
			state = EXCLUDED.state,
			head_sha = EXCLUDED.head_sha,
			updated_at = EXCLUDED.updated_at,
			merged_at = EXCLUDED.merged_at,
			closed_at = EXCLUDED.closed_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertPullRequests.prepare: %v", err)
		return repository.ErrFailedToInsert
	}
	defer stmt.Close()

	for _, pr := range prs {
		if _, err := stmt.ExecContext(ctx, pr.ConnectionID, pr.Number, pr.Title, string(pr.State),
			pr.SourceBranch, pr.TargetBranch, pr.HeadSHA, pr.AuthorLogin, pr.URL,
			nullTime(pr.CreatedAt), nullTime(pr.UpdatedAt), nullTime(pr.MergedAt), nullTime(pr.ClosedAt),
			pr.RecordedAt); err != nil {
			r.l.Errorf(ctx, "sync.repository.postgre.UpsertPullRequests.exec #%d: %v", pr.Number, err)
			return repository.ErrFailedToInsert
		}
	}
	if err := tx.Commit(); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.UpsertPullRequests.commit: %v", err)
		return repository.ErrFailedToInsert
	}
	return nil
}

func (r *implRepository) GetPullRequest(ctx context.Context, connectionID string, number int) (model.PullRequest, error) {
	const query = `SELECT ` + prColumns + ` FROM pull_requests WHERE connection_id = $1 AND number = $2`

	pr, err := scanPullRequest(r.db.QueryRowContext(ctx, query, connectionID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PullRequest{}, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "sync.repository.postgre.GetPullRequest: %v", err)
		return model.PullRequest{}, repository.ErrFailedToGet
	}
	return pr, nil
}

func (r *implRepository) ListPullRequests(ctx context.Context, opt repository.ListPullRequestsOptions) ([]model.PullRequest, error) {
	const query = `SELECT ` + prColumns + ` FROM pull_requests
		WHERE connection_id = $1 AND ($2 = '' OR state = $2)
		ORDER BY number DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, opt.ConnectionID, string(opt.State), limitOrAll(opt.Limit), opt.Offset)
	if err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.ListPullRequests: %v", err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	out := []model.PullRequest{}
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			r.l.Errorf(ctx, "sync.repository.postgre.ListPullRequests.scan: %v", err)
			return nil, repository.ErrFailedToList
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "sync.repository.postgre.ListPullRequests.rows: %v", err)
		return nil, repository.ErrFailedToList
	}
	return out, nil
}
