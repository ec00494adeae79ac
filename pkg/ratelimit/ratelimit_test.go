package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestAllow_PerKeyBudget(t *testing.T) {
	l := New(rate.Every(time.Hour), 2)

	for i := 0; i < 2; i++ {
		if err := l.Allow("github:conn-1"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
	if err := l.Allow("github:conn-1"); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}

	// A different key has its own bucket.
	if err := l.Allow("github:conn-2"); err != nil {
		t.Fatalf("unexpected error for second key: %v", err)
	}
}

func TestWait_BoundedWait(t *testing.T) {
	l := New(rate.Every(time.Hour), 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "k", 0); err != nil {
		t.Fatalf("first token should be free: %v", err)
	}

	start := time.Now()
	err := l.Wait(ctx, "k", 10*time.Millisecond)
	if !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Wait should give up immediately when the delay exceeds maxWait")
	}
}

func TestWait_BlocksUntilRefill(t *testing.T) {
	l := New(rate.Every(20*time.Millisecond), 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "k", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Wait(ctx, "k", time.Second); err != nil {
		t.Fatalf("expected Wait to block and succeed, got %v", err)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(rate.Every(time.Hour), 1)
	_ = l.Allow("k")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Delay is an hour, larger than maxWait, so the limit error wins.
	if err := l.Wait(ctx, "k", time.Minute); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
}

func TestPerMinute_MinimumBurst(t *testing.T) {
	l := PerMinute(5)
	if err := l.Allow("gitlab"); err != nil {
		t.Fatalf("minimum burst of one expected, got %v", err)
	}
}
