package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ErrLimited is returned when a key has no budget left within the allowed wait.
var ErrLimited = errors.New("rate limit exceeded")

const (
	defaultCapacity = 1000
	defaultTTL      = 5 * time.Minute
)

// Limiter keeps one token bucket per key. Idle buckets are evicted after the
// TTL, so a key that comes back later starts with a full bucket.
type Limiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// New creates a Limiter that refills each key at r tokens per second.
func New(r rate.Limit, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](defaultCapacity, nil, defaultTTL),
		rate:     r,
		burst:    burst,
	}
}

// PerMinute creates a Limiter allowing n events per minute per key.
func PerMinute(n int) *Limiter {
	return New(rate.Limit(float64(n)/60.0), n/10)
}

// PerHour creates a Limiter allowing n events per hour per key.
func PerHour(n, burst int) *Limiter {
	return New(rate.Limit(float64(n)/3600.0), burst)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(key, limiter)
	}
	return limiter
}

// Allow consumes one token for key without waiting.
func (l *Limiter) Allow(key string) error {
	if !l.get(key).Allow() {
		return fmt.Errorf("%w for %s", ErrLimited, key)
	}
	return nil
}

// Wait consumes one token for key, blocking up to maxWait for it to become
// available. A zero maxWait behaves like Allow.
func (l *Limiter) Wait(ctx context.Context, key string, maxWait time.Duration) error {
	reservation := l.get(key).Reserve()
	if !reservation.OK() {
		return fmt.Errorf("%w for %s", ErrLimited, key)
	}

	delay := reservation.Delay()
	if delay == 0 {
		return nil
	}
	if delay > maxWait {
		reservation.Cancel()
		return fmt.Errorf("%w for %s: next token in %s", ErrLimited, key, delay)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	}
}
