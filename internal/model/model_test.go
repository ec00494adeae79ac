package model

import (
	"net/http"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to WebhookStatus
		want     bool
	}{
		{WebhookPending, WebhookProcessing, true},
		{WebhookPending, WebhookIgnored, true},
		{WebhookPending, WebhookProcessed, false},
		{WebhookProcessing, WebhookProcessed, true},
		{WebhookProcessing, WebhookFailed, true},
		{WebhookFailed, WebhookPending, true},
		{WebhookProcessed, WebhookPending, false},
		{WebhookIgnored, WebhookProcessing, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTokenExpiresWithin(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := GitConnection{}
	if c.TokenExpiresWithin(now, time.Minute) {
		t.Error("zero expiry must be treated as non-expiring")
	}

	c.TokenExpiry = now.Add(2 * time.Minute)
	if c.TokenExpiresWithin(now, time.Minute) {
		t.Error("token two minutes out is outside a one minute margin")
	}
	if !c.TokenExpiresWithin(now, 5*time.Minute) {
		t.Error("token two minutes out is inside a five minute margin")
	}
}

func TestAcceptsEvent(t *testing.T) {
	c := GitConnection{WebhookEvents: []EventKind{EventKindPush}}
	if !c.AcceptsEvent(EventKindPush) {
		t.Error("push should be accepted")
	}
	if c.AcceptsEvent(EventKindPullRequest) {
		t.Error("pull_request is not subscribed")
	}
	if c.AcceptsEvent(EventKindUnknown) {
		t.Error("unknown kinds are never accepted")
	}

	c.WebhookEvents = nil
	if !c.AcceptsEvent(EventKindPullRequest) {
		t.Error("empty subscription falls back to defaults")
	}
}

func TestSnapshotHeaders_DropsSecrets(t *testing.T) {
	h := http.Header{}
	h.Set("X-GitHub-Delivery", "abc")
	h.Set("X-Gitlab-Token", "secret")
	h.Set("Authorization", "Bearer t")

	out := SnapshotHeaders(h)
	if out.Get("X-GitHub-Delivery") != "abc" {
		t.Errorf("expected delivery header to be kept")
	}
	if out.Get("X-Gitlab-Token") != "" || out.Get("Authorization") != "" {
		t.Errorf("secret headers must not be snapshotted: %v", out)
	}
}

func TestOAuthStateExpired(t *testing.T) {
	now := time.Now()
	s := OAuthState{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("state should still be valid")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("state should be expired at its deadline")
	}
}
