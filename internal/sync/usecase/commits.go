package usecase

import (
	"context"
	"errors"
	"sort"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	"git-integration/internal/sync/repository"
)

func (uc *implUseCase) SyncCommits(ctx context.Context, input sync.SyncCommitsInput) ([]model.Commit, error) {
	conn, strat, err := uc.prepare(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}
	branch := conn.Branch(input.Branch)

	cursor, err := uc.repo.GetCursor(ctx, conn.ID, branch)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	next, fresh, err := uc.collectCommits(ctx, conn, strat, branch, cursor, input.NoWait)
	if err != nil {
		uc.l.Warnf(ctx, "sync.usecase.SyncCommits: connection=%s branch=%s: %v", conn.ID, branch, err)
		uc.recordFailure(ctx, conn, err)
		return nil, err
	}

	if err := uc.ensureActive(ctx, conn.ID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	for i := range fresh {
		fresh[i].RecordedAt = now
	}
	if err := uc.repo.UpsertCommits(ctx, fresh); err != nil {
		uc.recordFailure(ctx, conn, err)
		return nil, err
	}

	state := connection.UpdateSyncStateInput{ID: conn.ID, Status: model.SyncStatusIdle, SyncedAt: now}
	if next.SHA != cursor.SHA || next.BackfillFrom != cursor.BackfillFrom {
		next.ConnectionID = conn.ID
		next.Branch = branch
		next.UpdatedAt = now
		if err := uc.repo.SaveCursor(ctx, next); err != nil {
			uc.recordFailure(ctx, conn, err)
			return nil, err
		}
		state.Cursor = next.SHA
	}
	if err := uc.connUC.UpdateSyncState(ctx, state); err != nil {
		uc.l.Warnf(ctx, "sync.usecase.SyncCommits.UpdateSyncState: connection=%s: %v", conn.ID, err)
	}

	uc.l.Infof(ctx, "sync.usecase.SyncCommits: connection=%s branch=%s new=%d cursor=%s", conn.ID, branch, len(fresh), state.Cursor)
	if len(fresh) > 0 {
		uc.publish(ctx, model.DomainEventCommitsSynced, conn, map[string]any{
			"branch": branch,
			"count":  len(fresh),
			"cursor": state.Cursor,
		})
	}
	return fresh, nil
}

// collectCommits finishes a pending backfill first and only then walks down
// from the branch head, so at most one gap is outstanding per branch. A walk
// that runs out of pages leaves a backfill marker at its oldest listed commit.
// Result is oldest first.
func (uc *implUseCase) collectCommits(
	ctx context.Context,
	conn model.GitConnection,
	strat provider.Strategy,
	branch string,
	cursor model.SyncCursor,
	noWait bool,
) (model.SyncCursor, []model.Commit, error) {
	var (
		next  = cursor
		fresh []model.Commit
		seen  = make(map[string]bool)
	)

	if cursor.BackfillFrom != "" {
		w, err := uc.walkCommits(ctx, conn, strat, branch, cursor.BackfillFrom, "", noWait, seen)
		if err != nil {
			return cursor, nil, err
		}
		fresh = append(fresh, w.newestFirst...)
		next.BackfillFrom = ""
		if w.truncated {
			next.BackfillFrom = w.oldest
			uc.l.Infof(ctx, "sync.usecase.collectCommits: connection=%s branch=%s backfill continues at %s", conn.ID, branch, w.oldest)
			return next, oldestFirst(fresh), nil
		}
	}

	w, err := uc.walkCommits(ctx, conn, strat, branch, branch, cursor.SHA, noWait, seen)
	if err != nil {
		return cursor, nil, err
	}
	fresh = append(fresh, w.newestFirst...)
	if len(w.newestFirst) > 0 {
		head := w.newestFirst[0]
		next.SHA = head.SHA
		next.CommittedAt = head.CommittedAt
	}
	if w.truncated {
		next.BackfillFrom = w.oldest
		uc.l.Infof(ctx, "sync.usecase.collectCommits: connection=%s branch=%s page budget spent, backfill from %s", conn.ID, branch, w.oldest)
	}
	return next, oldestFirst(fresh), nil
}

// commitWalk is one pass back through history from a start point.
type commitWalk struct {
	// newestFirst holds unrecorded commits in listing order.
	newestFirst []model.Commit
	oldest      string
	truncated   bool
}

// walkCommits pages back from ref until it meets a known commit, an empty
// page or the page budget. knownSHA is treated as recorded even when the
// store has not seen it.
func (uc *implUseCase) walkCommits(
	ctx context.Context,
	conn model.GitConnection,
	strat provider.Strategy,
	branch, ref, knownSHA string,
	noWait bool,
	seen map[string]bool,
) (commitWalk, error) {
	var w commitWalk

	page := 1
	for i := 0; page > 0; i++ {
		if i == uc.opts.MaxPages {
			w.truncated = true
			break
		}

		var res provider.CommitPage
		err := uc.call(ctx, conn, noWait, func(ctx context.Context) error {
			var err error
			res, err = strat.ListCommits(ctx, conn.AccessToken, provider.ListCommitsOptions{
				FullName: conn.RepositoryFullName,
				Branch:   ref,
				Page:     page,
				PerPage:  uc.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return commitWalk{}, err
		}
		if len(res.Items) == 0 {
			break
		}

		shas := make([]string, 0, len(res.Items))
		for _, c := range res.Items {
			shas = append(shas, c.SHA)
		}
		known, err := uc.repo.KnownSHAs(ctx, conn.ID, shas)
		if err != nil {
			return commitWalk{}, err
		}
		if knownSHA != "" {
			known[knownSHA] = true
		}

		for _, c := range res.Items {
			if known[c.SHA] || seen[c.SHA] {
				continue
			}
			seen[c.SHA] = true
			w.newestFirst = append(w.newestFirst, toCommit(conn.ID, branch, c))
		}

		// A backfill lists its own recorded start commit first.
		w.oldest = res.Items[len(res.Items)-1].SHA
		if known[w.oldest] && w.oldest != ref {
			break
		}
		page = res.NextPage
	}
	return w, nil
}

func oldestFirst(newestFirst []model.Commit) []model.Commit {
	out := make([]model.Commit, len(newestFirst))
	for i, c := range newestFirst {
		out[len(newestFirst)-1-i] = c
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CommittedAt.Before(out[j].CommittedAt) })
	return out
}
