package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

func newTestStrategy(t *testing.T, apiURL string) *strategy {
	t.Helper()
	s, err := New(provider.Config{ClientID: "id", ClientSecret: "secret", APIURL: apiURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.(*strategy)
}

func TestVerifySignature(t *testing.T) {
	s := newTestStrategy(t, "")
	h := http.Header{}
	h.Set(headerToken, "s3cret")

	if !s.VerifySignature(nil, h, "s3cret") {
		t.Error("matching token rejected")
	}
	if s.VerifySignature(nil, h, "s3cres") {
		t.Error("one-byte difference accepted")
	}
	if s.VerifySignature(nil, http.Header{}, "s3cret") {
		t.Error("missing token accepted")
	}
}

func TestParseDelivery(t *testing.T) {
	s := newTestStrategy(t, "")

	h := http.Header{}
	h.Set(headerUUID, "u-1")
	h.Set(headerEvent, "Push Hook")
	d, err := s.ParseDelivery(h, []byte(`{"object_kind":"push","ref":"refs/heads/dev"}`))
	if err != nil {
		t.Fatalf("ParseDelivery() error = %v", err)
	}
	if d.Kind != model.EventKindPush || d.Branch != "dev" || d.EventID != "u-1" {
		t.Errorf("push delivery = %+v", d)
	}

	h.Set(headerEvent, "Merge Request Hook")
	d, err = s.ParseDelivery(h, []byte(`{"object_attributes":{"iid":4,"action":"merge"}}`))
	if err != nil {
		t.Fatalf("ParseDelivery() error = %v", err)
	}
	if d.Kind != model.EventKindPullRequest || d.PRNumber != 4 || d.Action != "merged" {
		t.Errorf("merge request delivery = %+v", d)
	}

	h.Set(headerEvent, "Pipeline Hook")
	d, err = s.ParseDelivery(h, []byte(`{}`))
	if err != nil || d.Kind != model.EventKindUnknown {
		t.Errorf("pipeline delivery = %+v, %v", d, err)
	}

	h.Set(headerEvent, "Push Hook")
	if _, err := s.ParseDelivery(h, []byte(`[`)); !errors.Is(err, provider.ErrMalformedPayload) {
		t.Errorf("error = %v, want ErrMalformedPayload", err)
	}
}

func TestListCommits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/api/v4/projects/acme%2Fapp/repository/commits" {
			t.Errorf("path = %s", got)
		}
		if r.URL.Query().Get("ref_name") != "main" || r.URL.Query().Has("since") {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Header().Set("X-Next-Page", "3")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":             "c2",
			"message":        "fix",
			"author_name":    "Lin",
			"committed_date": "2026-01-02T09:00:00+02:00",
		}})
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL+"/api/v4")
	page, err := s.ListCommits(context.Background(), "tok", provider.ListCommitsOptions{
		FullName: "acme/app",
		Branch:   "main",
		Page:     2,
	})
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if page.NextPage != 3 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if want := time.Date(2026, 1, 2, 7, 0, 0, 0, time.UTC); !page.Items[0].CommittedAt.Equal(want) {
		t.Errorf("CommittedAt = %v, want %v", page.Items[0].CommittedAt, want)
	}
}

func TestListPullRequests_States(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "opened" {
			t.Errorf("state = %q", r.URL.Query().Get("state"))
		}
		_, _ = w.Write([]byte(`[{"iid":1,"state":"opened"},{"iid":2,"state":"merged","merged_at":"2026-01-01T00:00:00Z"},{"iid":3,"state":"locked"}]`))
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL)
	page, err := s.ListPullRequests(context.Background(), "tok", provider.ListPullRequestsOptions{FullName: "g/p", OpenOnly: true})
	if err != nil {
		t.Fatalf("ListPullRequests() error = %v", err)
	}
	want := []model.PullRequestState{model.PullRequestOpen, model.PullRequestMerged, model.PullRequestClosed}
	for i, pr := range page.Items {
		if pr.State != want[i] {
			t.Errorf("item %d state = %s, want %s", i, pr.State, want[i])
		}
	}
	if page.Items[1].MergedAt.IsZero() {
		t.Error("merged_at not mapped")
	}
}

func TestRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL)
	_, err := s.GetCommit(context.Background(), "tok", "g/p", "abc")
	if !errors.Is(err, provider.ErrRateLimited) || !provider.IsTransient(err) {
		t.Errorf("error = %v, want transient ErrRateLimited", err)
	}
}

func TestDeleteWebhook_NotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL)
	if err := s.DeleteWebhook(context.Background(), "tok", "g/p", "9"); err != nil {
		t.Errorf("DeleteWebhook() error = %v", err)
	}
}
