package bitbucket

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
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
	body := []byte(`{"push":{"changes":[]}}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)

	h := http.Header{}
	h.Set(headerSignature, "sha256="+hex.EncodeToString(mac.Sum(nil)))

	if !s.VerifySignature(body, h, "s3cret") {
		t.Fatal("valid signature rejected")
	}
	mutated := append([]byte(nil), body...)
	mutated[len(mutated)-1] ^= 0x01
	if s.VerifySignature(mutated, h, "s3cret") {
		t.Error("one-byte mutation accepted")
	}

	h.Set(headerSignature, "sha1=abcd")
	if s.VerifySignature(body, h, "s3cret") {
		t.Error("non sha256 prefix accepted")
	}
	h.Set(headerSignature, "sha256=zz")
	if s.VerifySignature(body, h, "s3cret") {
		t.Error("non hex digest accepted")
	}
}

func TestParseDelivery(t *testing.T) {
	s := newTestStrategy(t, "")

	tests := []struct {
		key      string
		body     string
		wantKind model.EventKind
		want     provider.Delivery
	}{
		{"repo:push", `{"push":{"changes":[{"new":{"type":"branch","name":"main"}}]}}`, model.EventKindPush, provider.Delivery{Branch: "main"}},
		{"pullrequest:fulfilled", `{"pullrequest":{"id":12}}`, model.EventKindPullRequest, provider.Delivery{PRNumber: 12, Action: "merged"}},
		{"diagnostics:ping", ``, model.EventKindPing, provider.Delivery{}},
		{"issue:created", `{}`, model.EventKindUnknown, provider.Delivery{}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			h := http.Header{}
			h.Set(headerEvent, tt.key)
			h.Set(headerRequestID, "r-1")

			d, err := s.ParseDelivery(h, []byte(tt.body))
			if err != nil {
				t.Fatalf("ParseDelivery() error = %v", err)
			}
			if d.Kind != tt.wantKind || d.Branch != tt.want.Branch || d.PRNumber != tt.want.PRNumber || d.Action != tt.want.Action {
				t.Errorf("got %+v", d)
			}
			if d.EventID != "r-1" || d.EventType != tt.key {
				t.Errorf("identity = %q/%q", d.EventID, d.EventType)
			}
		})
	}
}

func TestListCommits_FollowsNextLink(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repositories/team/app/commits/main" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"values":[{"hash":"c1","message":"m","date":"2026-01-01T00:00:00+00:00","author":{"raw":"Ada Lovelace <ada@example.com>"}}],"next":"%s/repositories/team/app/commits/main?page=2"}`, srv.URL)
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL)
	page, err := s.ListCommits(context.Background(), "tok", provider.ListCommitsOptions{FullName: "team/app", Branch: "main"})
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if page.NextPage != 2 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	c := page.Items[0]
	if c.AuthorName != "Ada Lovelace" || c.AuthorEmail != "ada@example.com" {
		t.Errorf("author = %q <%q>", c.AuthorName, c.AuthorEmail)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL)
	_, err := s.ListBranches(context.Background(), "tok", "team/app")
	if !errors.Is(err, provider.ErrTransient) {
		t.Errorf("error = %v, want ErrTransient", err)
	}
	if provider.StatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("status = %d", provider.StatusCode(err))
	}
}
