package cache

import (
	"context"
	"testing"
	"time"

	"git-integration/internal/model"
)

func TestStateStore_SingleUse(t *testing.T) {
	s := NewStateStore(10, time.Minute)
	ctx := context.Background()
	_ = s.Save(ctx, model.OAuthState{Token: "abc", ExpiresAt: time.Now().Add(time.Minute)})

	if _, ok := s.Consume(ctx, "abc"); !ok {
		t.Fatal("first consume should succeed")
	}
	if _, ok := s.Consume(ctx, "abc"); ok {
		t.Fatal("second consume must fail")
	}
}

func TestStateStore_ReturnsStoredExpiry(t *testing.T) {
	s := NewStateStore(10, time.Hour)
	ctx := context.Background()
	exp := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Save(ctx, model.OAuthState{Token: "abc", ExpiresAt: exp})

	state, ok := s.Consume(ctx, "abc")
	if !ok {
		t.Fatal("state within the store ttl should be returned")
	}
	if !state.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", state.ExpiresAt, exp)
	}
}

func TestStateStore_CapacityEviction(t *testing.T) {
	s := NewStateStore(1, time.Minute)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)
	_ = s.Save(ctx, model.OAuthState{Token: "old", ExpiresAt: exp})
	_ = s.Save(ctx, model.OAuthState{Token: "new", ExpiresAt: exp})

	if _, ok := s.Consume(ctx, "old"); ok {
		t.Error("oldest state should have been evicted")
	}
	if _, ok := s.Consume(ctx, "new"); !ok {
		t.Error("newest state should be kept")
	}
}
