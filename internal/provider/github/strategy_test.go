package github

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func signSHA1(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestStrategy(t *testing.T, apiURL, tokenURL string) *strategy {
	t.Helper()
	s, err := New(provider.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     tokenURL,
		APIURL:       apiURL,
		Timeout:      2 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.(*strategy)
}

func TestVerifySignature(t *testing.T) {
	s := newTestStrategy(t, "", "")
	body := []byte(`{"zen":"Keep it logically awesome."}`)

	h := http.Header{}
	h.Set(headerSignature, sign("s3cret", body))
	if !s.VerifySignature(body, h, "s3cret") {
		t.Fatal("valid signature rejected")
	}

	mutated := append([]byte(nil), body...)
	mutated[2] ^= 0x01
	if s.VerifySignature(mutated, h, "s3cret") {
		t.Error("one-byte mutation must fail verification")
	}
	if s.VerifySignature(body, h, "other") {
		t.Error("wrong secret must fail verification")
	}
	if s.VerifySignature(body, http.Header{}, "s3cret") {
		t.Error("missing signature must fail verification")
	}
	if s.VerifySignature(body, h, "") {
		t.Error("empty secret must fail verification")
	}
}

func TestVerifySignature_RejectsSHA1(t *testing.T) {
	s := newTestStrategy(t, "", "")
	body := []byte(`{"zen":"Design for failure."}`)

	legacy := http.Header{}
	legacy.Set("X-Hub-Signature", signSHA1("s3cret", body))
	if s.VerifySignature(body, legacy, "s3cret") {
		t.Error("legacy X-Hub-Signature alone must not verify")
	}

	relabelled := http.Header{}
	relabelled.Set(headerSignature, signSHA1("s3cret", body))
	if s.VerifySignature(body, relabelled, "s3cret") {
		t.Error("sha1 digest in the sha256 header must not verify")
	}
}

func TestParseDelivery(t *testing.T) {
	s := newTestStrategy(t, "", "")

	tests := []struct {
		name      string
		eventType string
		body      string
		wantKind  model.EventKind
		wantErr   bool
		check     func(t *testing.T, d provider.Delivery)
	}{
		{
			name:      "push",
			eventType: "push",
			body:      `{"ref":"refs/heads/main","after":"abc"}`,
			wantKind:  model.EventKindPush,
			check: func(t *testing.T, d provider.Delivery) {
				if d.Branch != "main" {
					t.Errorf("Branch = %q, want main", d.Branch)
				}
			},
		},
		{
			name:      "merged pull request",
			eventType: "pull_request",
			body:      `{"action":"closed","number":7,"pull_request":{"merged":true}}`,
			wantKind:  model.EventKindPullRequest,
			check: func(t *testing.T, d provider.Delivery) {
				if d.PRNumber != 7 || d.Action != "merged" {
					t.Errorf("got PR %d action %q", d.PRNumber, d.Action)
				}
			},
		},
		{name: "ping", eventType: "ping", body: `{"zen":"x","hook_id":1}`, wantKind: model.EventKindPing},
		{name: "unknown type", eventType: "star", body: `not json`, wantKind: model.EventKindUnknown},
		{name: "bad json", eventType: "push", body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			h.Set(headerEvent, tt.eventType)
			h.Set(headerDelivery, "d-1")

			d, err := s.ParseDelivery(h, []byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, provider.ErrMalformedPayload) {
					t.Fatalf("error = %v, want ErrMalformedPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDelivery() error = %v", err)
			}
			if d.EventID != "d-1" || d.Kind != tt.wantKind {
				t.Errorf("got %+v", d)
			}
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestParseDelivery_MissingHeaders(t *testing.T) {
	s := newTestStrategy(t, "", "")
	if _, err := s.ParseDelivery(http.Header{}, []byte(`{}`)); !errors.Is(err, provider.ErrMalformedPayload) {
		t.Errorf("error = %v, want ErrMalformedPayload", err)
	}
}

func TestListCommits_Paging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/app/commits" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("sha") != "main" {
			t.Errorf("sha = %q", r.URL.Query().Get("sha"))
		}
		w.Header().Set("Link", `<http://example.test/repos/acme/app/commits?page=2>; rel="next"`)
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"sha":      "c1",
			"html_url": "https://github.com/acme/app/commit/c1",
			"commit": map[string]any{
				"message":   "initial",
				"author":    map[string]any{"name": "Ada", "email": "ada@example.com", "date": "2026-01-01T10:00:00Z"},
				"committer": map[string]any{"name": "Ada", "date": "2026-01-01T11:00:00Z"},
			},
		}})
	}))
	defer srv.Close()

	s := newTestStrategy(t, srv.URL, "")
	page, err := s.ListCommits(context.Background(), "tok", provider.ListCommitsOptions{FullName: "acme/app", Branch: "main", PerPage: 10})
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(page.Items) != 1 || page.NextPage != 2 {
		t.Fatalf("got %d items, next %d", len(page.Items), page.NextPage)
	}
	c := page.Items[0]
	if c.SHA != "c1" || c.AuthorName != "Ada" {
		t.Errorf("commit = %+v", c)
	}
	if want := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC); !c.CommittedAt.Equal(want) {
		t.Errorf("CommittedAt = %v, want committer date %v", c.CommittedAt, want)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, provider.ErrPermanent},
		{http.StatusBadGateway, provider.ErrTransient},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))
		s := newTestStrategy(t, srv.URL, "")
		_, err := s.GetRepository(context.Background(), "tok", "acme/app")
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestGetRepository_BadFullName(t *testing.T) {
	s := newTestStrategy(t, "", "")
	if _, err := s.GetRepository(context.Background(), "tok", "no-slash"); !errors.Is(err, provider.ErrPermanent) {
		t.Errorf("error = %v, want ErrPermanent", err)
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	s := newTestStrategy(t, "", srv.URL)

	tok, err := s.Exchange(context.Background(), "good", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" || tok.Expiry.IsZero() {
		t.Errorf("token = %+v", tok)
	}

	if _, err := s.Exchange(context.Background(), "bad", "https://app.example.com/cb"); !errors.Is(err, provider.ErrAuthExchangeFailed) {
		t.Errorf("error = %v, want ErrAuthExchangeFailed", err)
	}
}

func TestRefresh_Revoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	s := newTestStrategy(t, "", srv.URL)
	if _, err := s.Refresh(context.Background(), "rt"); !errors.Is(err, provider.ErrRefreshRevoked) {
		t.Errorf("error = %v, want ErrRefreshRevoked", err)
	}
}
