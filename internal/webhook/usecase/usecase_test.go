package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/provider/providertest"
	"git-integration/internal/webhook"
	"git-integration/internal/webhook/repository"
	"git-integration/internal/webhook/repository/memory"
	pkgLog "git-integration/pkg/log"
)

// stubConnections serves connections from a map. Methods the ingestor does
// not call panic via the nil embedded interface.
type stubConnections struct {
	connection.UseCase
	conns map[string]model.GitConnection
}

func (s *stubConnections) Get(_ context.Context, id string) (model.GitConnection, error) {
	c, ok := s.conns[id]
	if !ok {
		return model.GitConnection{}, connection.ErrConnectionNotFound
	}
	return c, nil
}

func (s *stubConnections) Detail(ctx context.Context, _ model.Scope, id string) (model.GitConnection, error) {
	return s.Get(ctx, id)
}

type recordingNotifier struct {
	mu      sync.Mutex
	signals []string
}

func (n *recordingNotifier) Signal(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, id)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.signals)
}

type fixture struct {
	uc       *implUseCase
	repo     repository.Repository
	notifier *recordingNotifier
	conns    *stubConnections
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := provider.NewRegistry(providertest.New(model.ProviderGitHub))
	if err != nil {
		t.Fatal(err)
	}
	conns := &stubConnections{conns: map[string]model.GitConnection{
		"c1": {ID: "c1", Provider: model.ProviderGitHub, WebhookSecret: "s3cret", Active: true},
		"c2": {ID: "c2", Provider: model.ProviderGitHub, WebhookSecret: "other", Active: false},
		"c3": {ID: "c3", Provider: model.ProviderGitLab, WebhookSecret: "s3cret", Active: true},
	}}
	repo := memory.New()
	notifier := &recordingNotifier{}
	uc := New(pkgLog.NewNop(), repo, conns, registry, notifier)
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{uc: uc, repo: repo, notifier: notifier, conns: conns}
}

func delivery(secret, id string) webhook.ReceiveInput {
	h := http.Header{}
	h.Set(providertest.HeaderSignature, secret)
	h.Set(providertest.HeaderEventID, id)
	h.Set(providertest.HeaderEvent, "push")
	h.Set(providertest.HeaderBranch, "main")
	return webhook.ReceiveInput{
		Provider:     model.ProviderGitHub,
		ConnectionID: "c1",
		Headers:      h,
		Body:         []byte(`{"ref":"refs/heads/main"}`),
	}
}

func TestReceive_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Receive(ctx, delivery("s3cret", "d-1"))
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if first.Duplicate || first.Status != model.WebhookPending {
		t.Errorf("first = %+v", first)
	}

	for i := 0; i < 3; i++ {
		again, err := f.uc.Receive(ctx, delivery("s3cret", "d-1"))
		if err != nil {
			t.Fatalf("redelivery error = %v", err)
		}
		if !again.Duplicate || again.EventID != first.EventID {
			t.Errorf("redelivery = %+v, want duplicate of %s", again, first.EventID)
		}
	}

	events, _ := f.repo.List(ctx, repository.ListOptions{ConnectionID: "c1"})
	if len(events) != 1 {
		t.Fatalf("stored %d events, want 1", len(events))
	}
	e := events[0]
	if e.Kind != model.EventKindPush || e.Branch != "main" || e.ReceivedAt.IsZero() {
		t.Errorf("stored event = %+v", e)
	}
	if e.Headers.Get(providertest.HeaderSignature) != "" {
		t.Error("signature header must not be stored")
	}
	if f.notifier.count() != 1 {
		t.Errorf("signals = %d, want 1", f.notifier.count())
	}
}

func TestReceive_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*webhook.ReceiveInput)
		want   error
	}{
		{"unknown provider", func(in *webhook.ReceiveInput) { in.Provider = "gitea" }, provider.ErrUnknownProvider},
		{"unknown connection", func(in *webhook.ReceiveInput) { in.ConnectionID = "nope" }, webhook.ErrConnectionNotFound},
		{"provider mismatch", func(in *webhook.ReceiveInput) { in.ConnectionID = "c3" }, webhook.ErrConnectionNotFound},
		{"bad signature", func(in *webhook.ReceiveInput) { in.Headers.Set(providertest.HeaderSignature, "s3creT") }, webhook.ErrSignatureInvalid},
		{"missing signature", func(in *webhook.ReceiveInput) { in.Headers.Del(providertest.HeaderSignature) }, webhook.ErrSignatureInvalid},
		{"inactive", func(in *webhook.ReceiveInput) {
			in.ConnectionID = "c2"
			in.Headers.Set(providertest.HeaderSignature, "other")
		}, connection.ErrConnectionInactive},
		{"malformed", func(in *webhook.ReceiveInput) { in.Headers.Del(providertest.HeaderEventID) }, provider.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := delivery("s3cret", "d-1")
			tt.mutate(&in)

			_, err := f.uc.Receive(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Receive() error = %v, want %v", err, tt.want)
			}
			for _, id := range []string{"c1", "c2", "c3"} {
				if events, _ := f.repo.List(context.Background(), repository.ListOptions{ConnectionID: id}); len(events) != 0 {
					t.Errorf("connection %s has %d stored events after rejection", id, len(events))
				}
			}
			if f.notifier.count() != 0 {
				t.Error("rejected deliveries must not wake the processor")
			}
		})
	}
}

func TestReceive_UnknownKindIsStored(t *testing.T) {
	f := newFixture(t)
	in := delivery("s3cret", "d-9")
	in.Headers.Set(providertest.HeaderEvent, "star")

	out, err := f.uc.Receive(context.Background(), in)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	e, _ := f.repo.Detail(context.Background(), out.EventID)
	if e.Kind != model.EventKindUnknown || e.EventType != "star" {
		t.Errorf("event = %+v", e)
	}
}

func TestListEvents_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"d-1", "d-2", "d-3"} {
		if _, err := f.uc.Receive(ctx, delivery("s3cret", id)); err != nil {
			t.Fatal(err)
		}
	}

	events, err := f.uc.ListEvents(ctx, model.Scope{}, webhook.ListEventsInput{ConnectionID: "c1", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ProviderEventID != "d-3" {
		t.Errorf("events = %+v", events)
	}

	if _, err := f.uc.ListEvents(ctx, model.Scope{}, webhook.ListEventsInput{ConnectionID: "nope"}); !errors.Is(err, connection.ErrConnectionNotFound) {
		t.Errorf("unknown connection error = %v", err)
	}
}
