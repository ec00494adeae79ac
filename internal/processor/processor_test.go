package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	gitsync "git-integration/internal/sync"
	"git-integration/internal/webhook/repository"
	"git-integration/internal/webhook/repository/memory"
	pkgLog "git-integration/pkg/log"
)

type stubConnections struct {
	connection.UseCase
	mu    sync.Mutex
	conns map[string]model.GitConnection
	err   error
}

func (s *stubConnections) Get(_ context.Context, id string) (model.GitConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.GitConnection{}, s.err
	}
	c, ok := s.conns[id]
	if !ok {
		return model.GitConnection{}, connection.ErrConnectionNotFound
	}
	return c, nil
}

// stubSync records which branch each push sync ran for. fail decides the
// outcome of every call.
type stubSync struct {
	gitsync.UseCase
	delay time.Duration
	fail  func(input gitsync.SyncCommitsInput) error

	mu       sync.Mutex
	order    map[string][]string
	inFlight map[string]int
	overlap  bool
	prCalls  int
}

func newStubSync() *stubSync {
	return &stubSync{order: make(map[string][]string), inFlight: make(map[string]int)}
}

func (s *stubSync) SyncCommits(_ context.Context, input gitsync.SyncCommitsInput) ([]model.Commit, error) {
	s.mu.Lock()
	s.inFlight[input.ConnectionID]++
	if s.inFlight[input.ConnectionID] > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inFlight[input.ConnectionID]--
	s.order[input.ConnectionID] = append(s.order[input.ConnectionID], input.Branch)
	s.mu.Unlock()

	if s.fail != nil {
		return nil, s.fail(input)
	}
	return nil, nil
}

func (s *stubSync) SyncPullRequests(_ context.Context, _ gitsync.SyncPullRequestsInput) ([]model.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prCalls++
	return nil, nil
}

type fixture struct {
	p     *Processor
	repo  repository.Repository
	sync  *stubSync
	conns *stubConnections
	clock time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		repo: memory.New(),
		sync: newStubSync(),
		conns: &stubConnections{conns: map[string]model.GitConnection{
			"c1": {ID: "c1", Provider: model.ProviderGitHub, Active: true},
			"c2": {ID: "c2", Provider: model.ProviderGitHub, Active: true},
			"push-only": {ID: "push-only", Provider: model.ProviderGitHub, Active: true,
				WebhookEvents: []model.EventKind{model.EventKindPush}},
			"gone": {ID: "gone", Provider: model.ProviderGitHub, Active: false},
		}},
		clock: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.p = New(pkgLog.NewNop(), f.repo, f.conns, f.sync, opts)
	return f
}

func (f *fixture) fixClock() {
	f.p.now = func() time.Time { return f.clock }
}

func (f *fixture) push(t *testing.T, connectionID, id, branch string) {
	t.Helper()
	f.add(t, model.WebhookEvent{ID: id, ConnectionID: connectionID, Kind: model.EventKindPush, Branch: branch})
}

func (f *fixture) add(t *testing.T, e model.WebhookEvent) {
	t.Helper()
	e.Provider = model.ProviderGitHub
	e.ProviderEventID = "delivery-" + e.ID
	e.Status = model.WebhookPending
	e.ReceivedAt = f.clock
	if _, err := f.repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create %s: %v", e.ID, err)
	}
}

func (f *fixture) detail(t *testing.T, id string) model.WebhookEvent {
	t.Helper()
	e, err := f.repo.Detail(context.Background(), id)
	if err != nil {
		t.Fatalf("detail %s: %v", id, err)
	}
	return e
}

func transientErr() error {
	return provider.Classify("github", "list commits", 502, "bad gateway")
}

func TestBackoff(t *testing.T) {
	base, ceiling := time.Second, 10*time.Second
	tcs := []struct {
		retry int
		want  time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{40, 10 * time.Second},
	}
	for _, tc := range tcs {
		t.Run(fmt.Sprintf("retry_%d", tc.retry), func(t *testing.T) {
			if got := Backoff(base, ceiling, tc.retry); got != tc.want {
				t.Errorf("Backoff(%d) = %s, want %s", tc.retry, got, tc.want)
			}
		})
	}

	prev := time.Duration(0)
	for i := 0; i < 100; i++ {
		d := Backoff(base, ceiling, i)
		if d < prev {
			t.Fatalf("Backoff decreased at retry %d: %s < %s", i, d, prev)
		}
		prev = d
	}
}

func TestStep_Processed(t *testing.T) {
	f := newFixture(t, Options{})
	f.fixClock()
	f.push(t, "c1", "e1", "main")

	if !f.p.step("c1") {
		t.Fatal("step reported no progress")
	}

	e := f.detail(t, "e1")
	if e.Status != model.WebhookProcessed {
		t.Fatalf("status = %s, want PROCESSED", e.Status)
	}
	if !e.ProcessedAt.Equal(f.clock) {
		t.Errorf("processed_at = %s", e.ProcessedAt)
	}
	if got := f.sync.order["c1"]; len(got) != 1 || got[0] != "main" {
		t.Errorf("sync calls = %v", got)
	}

	if f.p.step("c1") {
		t.Error("step on an empty lane reported progress")
	}
}

func TestStep_PullRequestDispatch(t *testing.T) {
	f := newFixture(t, Options{})
	f.fixClock()
	f.add(t, model.WebhookEvent{ID: "e1", ConnectionID: "c1", Kind: model.EventKindPullRequest, PRNumber: 7})

	f.p.step("c1")

	if e := f.detail(t, "e1"); e.Status != model.WebhookProcessed {
		t.Fatalf("status = %s", e.Status)
	}
	if f.sync.prCalls != 1 {
		t.Errorf("pr sync calls = %d, want 1", f.sync.prCalls)
	}
}

func TestStep_UnsubscribedKindIgnored(t *testing.T) {
	f := newFixture(t, Options{})
	f.fixClock()
	f.add(t, model.WebhookEvent{ID: "e1", ConnectionID: "push-only", Kind: model.EventKindPullRequest, PRNumber: 1})
	f.add(t, model.WebhookEvent{ID: "e2", ConnectionID: "c1", Kind: model.EventKindUnknown})

	f.p.step("push-only")
	f.p.step("c1")

	for _, id := range []string{"e1", "e2"} {
		if e := f.detail(t, id); e.Status != model.WebhookIgnored {
			t.Errorf("%s status = %s, want IGNORED", id, e.Status)
		}
	}
	if f.sync.prCalls != 0 || len(f.sync.order) != 0 {
		t.Error("ignored events reached the sync engine")
	}
}

func TestStep_InactiveConnectionFails(t *testing.T) {
	f := newFixture(t, Options{MaxRetries: 5})
	f.fixClock()
	f.push(t, "gone", "e1", "main")

	f.p.step("gone")

	e := f.detail(t, "e1")
	if e.Status != model.WebhookFailed {
		t.Fatalf("status = %s, want FAILED", e.Status)
	}
	if e.ErrorMessage != connection.ErrConnectionInactive.Error() {
		t.Errorf("error = %q", e.ErrorMessage)
	}
	if e.RetryCount != 0 {
		t.Errorf("retry_count = %d, want 0", e.RetryCount)
	}
}

func TestStep_ConnectionLookupErrorLeavesPending(t *testing.T) {
	f := newFixture(t, Options{MaxRetries: 5})
	f.fixClock()
	f.push(t, "c1", "e1", "main")
	f.conns.err = errors.New("connection pool exhausted")

	if f.p.step("c1") {
		t.Error("step reported progress on a lookup failure")
	}
	e := f.detail(t, "e1")
	if e.Status != model.WebhookPending || e.RetryCount != 0 || e.ErrorMessage != "" {
		t.Fatalf("event = %s retry=%d error=%q, want untouched PENDING", e.Status, e.RetryCount, e.ErrorMessage)
	}

	f.conns.err = nil
	f.p.step("c1")
	if e := f.detail(t, "e1"); e.Status != model.WebhookProcessed {
		t.Errorf("status after recovery = %s, want PROCESSED", e.Status)
	}
}

func TestStep_UnknownConnectionFails(t *testing.T) {
	f := newFixture(t, Options{MaxRetries: 5})
	f.fixClock()
	f.push(t, "missing", "e1", "main")

	f.p.step("missing")

	if e := f.detail(t, "e1"); e.Status != model.WebhookFailed {
		t.Errorf("status = %s, want FAILED", e.Status)
	}
}

func TestStep_PermanentFailureNotRetried(t *testing.T) {
	f := newFixture(t, Options{MaxRetries: 5})
	f.fixClock()
	f.sync.fail = func(gitsync.SyncCommitsInput) error {
		return provider.Classify("github", "list commits", 404, "Not Found")
	}
	f.push(t, "c1", "e1", "main")

	f.p.step("c1")

	e := f.detail(t, "e1")
	if e.Status != model.WebhookFailed || e.RetryCount != 0 {
		t.Fatalf("status = %s retry = %d, want FAILED/0", e.Status, e.RetryCount)
	}
	if e.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestStep_RetryBound(t *testing.T) {
	const maxRetries = 3
	f := newFixture(t, Options{MaxRetries: maxRetries, BaseBackoff: time.Second, MaxBackoff: time.Minute})
	f.fixClock()
	f.sync.fail = func(gitsync.SyncCommitsInput) error { return transientErr() }
	f.push(t, "c1", "e1", "main")

	var delays []time.Duration
	for attempt := 0; attempt <= maxRetries; attempt++ {
		f.p.step("c1")
		e := f.detail(t, "e1")
		if attempt < maxRetries {
			if e.Status != model.WebhookPending {
				t.Fatalf("attempt %d: status = %s, want PENDING", attempt, e.Status)
			}
			if e.RetryCount != attempt+1 {
				t.Fatalf("attempt %d: retry_count = %d", attempt, e.RetryCount)
			}

			// Not due yet: the lane must not pick it up early.
			if f.p.step("c1") {
				t.Fatalf("attempt %d: event picked up before its back-off elapsed", attempt)
			}
			delays = append(delays, e.NextAttemptAt.Sub(f.clock))
			f.clock = e.NextAttemptAt
			continue
		}
		if e.Status != model.WebhookFailed {
			t.Fatalf("final status = %s, want FAILED", e.Status)
		}
		if e.RetryCount != maxRetries {
			t.Fatalf("final retry_count = %d, want %d", e.RetryCount, maxRetries)
		}
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v", delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %s, want %s", i, delays[i], want[i])
		}
	}
	if n := len(f.sync.order["c1"]); n != maxRetries+1 {
		t.Errorf("sync attempts = %d, want %d", n, maxRetries+1)
	}
}

func TestStep_HeadBlocksLaterEvents(t *testing.T) {
	f := newFixture(t, Options{MaxRetries: 2, BaseBackoff: time.Minute, MaxBackoff: time.Hour})
	f.fixClock()
	calls := 0
	f.sync.fail = func(gitsync.SyncCommitsInput) error {
		calls++
		if calls == 1 {
			return transientErr()
		}
		return nil
	}
	f.push(t, "c1", "a", "first")
	f.push(t, "c1", "b", "second")

	f.p.step("c1")
	if f.p.step("c1") {
		t.Fatal("later event overtook a head waiting for retry")
	}
	if e := f.detail(t, "b"); e.Status != model.WebhookPending {
		t.Fatalf("b status = %s", e.Status)
	}

	f.clock = f.clock.Add(time.Minute)
	f.p.step("c1")
	f.p.step("c1")

	if got := f.sync.order["c1"]; fmt.Sprint(got) != "[first first second]" {
		t.Errorf("order = %v", got)
	}
}

func TestProcessor_OrderingAcrossLanes(t *testing.T) {
	f := newFixture(t, Options{Workers: 4, PollInterval: 10 * time.Millisecond})
	f.sync.delay = 2 * time.Millisecond

	ctx := context.Background()
	if err := f.p.Start(ctx); err != nil {
		t.Fatal(err)
	}

	var want = map[string][]string{}
	for i := 0; i < 10; i++ {
		for _, conn := range []string{"c1", "c2"} {
			branch := fmt.Sprintf("b%d", i)
			f.push(t, conn, fmt.Sprintf("%s-%d", conn, i), branch)
			want[conn] = append(want[conn], branch)
			f.p.Signal(conn)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		pending := 0
		for _, conn := range []string{"c1", "c2"} {
			events, err := f.repo.List(ctx, repository.ListOptions{ConnectionID: conn})
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range events {
				if !e.Status.Terminal() {
					pending++
				}
			}
		}
		if pending == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d events still pending", pending)
		}
		time.Sleep(5 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := f.p.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	f.sync.mu.Lock()
	defer f.sync.mu.Unlock()
	if f.sync.overlap {
		t.Error("two events of one connection were processed at the same time")
	}
	for conn, branches := range want {
		if fmt.Sprint(f.sync.order[conn]) != fmt.Sprint(branches) {
			t.Errorf("%s order = %v, want %v", conn, f.sync.order[conn], branches)
		}
	}
}

func TestProcessor_StartRequeuesAbandoned(t *testing.T) {
	f := newFixture(t, Options{PollInterval: time.Hour})
	f.push(t, "c1", "e1", "main")
	ctx := context.Background()
	if _, err := f.repo.Claim(ctx, "e1", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := f.p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	// The first poll runs immediately and wakes the requeued lane.
	deadline := time.Now().Add(2 * time.Second)
	for f.detail(t, "e1").Status != model.WebhookProcessed {
		if time.Now().After(deadline) {
			t.Fatalf("status = %s", f.detail(t, "e1").Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := f.p.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	if err := f.p.Start(ctx); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestProcessor_SignalAfterShutdown(t *testing.T) {
	f := newFixture(t, Options{PollInterval: time.Hour})
	ctx := context.Background()
	if err := f.p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.p.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	f.push(t, "c1", "e1", "main")
	f.p.Signal("c1")
	time.Sleep(20 * time.Millisecond)

	if e := f.detail(t, "e1"); e.Status != model.WebhookPending {
		t.Errorf("status = %s, want PENDING after shutdown", e.Status)
	}
	if !errors.Is(f.p.workCtx.Err(), context.Canceled) {
		t.Error("work context not cancelled after shutdown")
	}
}
