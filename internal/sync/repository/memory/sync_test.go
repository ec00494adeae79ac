package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/sync/repository"
)

func TestUpsertCommits_KeepsFirstBranch(t *testing.T) {
	ctx := context.Background()
	r := New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = r.UpsertCommits(ctx, []model.Commit{{ConnectionID: "c1", SHA: "a", Branch: "main", Message: "one", CommittedAt: t0}})
	_ = r.UpsertCommits(ctx, []model.Commit{{ConnectionID: "c1", SHA: "a", Branch: "feature", Message: "one (amended)", CommittedAt: t0}})

	c, err := r.GetCommit(ctx, "c1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if c.Branch != "main" || c.Message != "one (amended)" {
		t.Errorf("commit = %+v", c)
	}
	if _, err := r.GetCommit(ctx, "c2", "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("commits are scoped by connection: %v", err)
	}
}

func TestKnownSHAsAndList(t *testing.T) {
	ctx := context.Background()
	r := New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = r.UpsertCommits(ctx, []model.Commit{
		{ConnectionID: "c1", SHA: "a", Branch: "main", CommittedAt: t0},
		{ConnectionID: "c1", SHA: "b", Branch: "main", CommittedAt: t0.Add(time.Hour)},
		{ConnectionID: "c1", SHA: "x", Branch: "dev", CommittedAt: t0.Add(2 * time.Hour)},
	})

	known, _ := r.KnownSHAs(ctx, "c1", []string{"a", "z", "b"})
	if len(known) != 2 || !known["a"] || !known["b"] {
		t.Errorf("known = %v", known)
	}

	list, _ := r.ListCommits(ctx, repository.ListCommitsOptions{ConnectionID: "c1", Branch: "main"})
	if len(list) != 2 || list[0].SHA != "b" {
		t.Errorf("list = %+v, want newest first", list)
	}
	list, _ = r.ListCommits(ctx, repository.ListCommitsOptions{ConnectionID: "c1", Limit: 1, Offset: 1})
	if len(list) != 1 || list[0].SHA != "b" {
		t.Errorf("windowed list = %+v", list)
	}
}

func TestPullRequestsAndCursor(t *testing.T) {
	ctx := context.Background()
	r := New()

	_ = r.UpsertPullRequests(ctx, []model.PullRequest{
		{ConnectionID: "c1", Number: 1, State: model.PullRequestOpen},
		{ConnectionID: "c1", Number: 2, State: model.PullRequestOpen},
	})
	_ = r.UpsertPullRequests(ctx, []model.PullRequest{{ConnectionID: "c1", Number: 1, State: model.PullRequestMerged}})

	open, _ := r.ListPullRequests(ctx, repository.ListPullRequestsOptions{ConnectionID: "c1", State: model.PullRequestOpen})
	if len(open) != 1 || open[0].Number != 2 {
		t.Errorf("open = %+v", open)
	}

	if _, err := r.GetCursor(ctx, "c1", "main"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing cursor = %v", err)
	}
	_ = r.SaveCursor(ctx, model.SyncCursor{ConnectionID: "c1", Branch: "main", SHA: "b"})
	if c, _ := r.GetCursor(ctx, "c1", "main"); c.SHA != "b" {
		t.Errorf("cursor = %+v", c)
	}
}
