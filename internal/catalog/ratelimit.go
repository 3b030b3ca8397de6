package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the daily catalog quota is exhausted.
var ErrDailyLimitReached = errors.New("daily catalog API limit reached")

// RateLimiter controls the account-level catalog call rate and daily quota.
// It uses a token bucket for per-second limiting and a rolling 24-hour
// window for the quota. A non-positive per-second rate disables the bucket
// and a non-positive daily limit disables the quota.
type RateLimiter struct {
	limiter  *rate.Limiter
	daily    atomic.Int64
	maxDaily int64
	resetAt  time.Time
	mu       sync.Mutex
	nowFunc  func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a rate limiter with the given per-second rate,
// burst size, and daily limit. The quota window resets 24 hours after it
// was opened.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	r := &RateLimiter{
		limiter:  rate.NewLimiter(limit, max(burst, 1)),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(24 * time.Hour)
	return r
}

// Wait blocks until the token bucket allows the call, or the context is
// canceled. Returns ErrDailyLimitReached once the quota is spent. A quota
// slot is reserved before waiting on the bucket and returned if the wait
// fails, so concurrent callers never push usage past the limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.checkDailyReset()

	if !r.reserve() {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.daily.Load(), r.maxDaily)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.release()
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (r *RateLimiter) reserve() bool {
	if !r.Limited() {
		r.daily.Add(1)
		return true
	}
	for {
		n := r.daily.Load()
		if n >= r.maxDaily {
			return false
		}
		if r.daily.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release returns a reserved slot. A window reset may already have zeroed
// the count, so it never goes below zero.
func (r *RateLimiter) release() {
	for {
		n := r.daily.Load()
		if n <= 0 || r.daily.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Limited reports whether a daily quota is enforced.
func (r *RateLimiter) Limited() bool {
	return r.maxDaily > 0
}

// DailyCount returns the number of calls made in the current window.
func (r *RateLimiter) DailyCount() int64 {
	return r.daily.Load()
}

// MaxDaily returns the configured daily call limit.
func (r *RateLimiter) MaxDaily() int64 {
	return r.maxDaily
}

// Remaining returns the calls left in the current window, or -1 when no
// quota is enforced.
func (r *RateLimiter) Remaining() int64 {
	if !r.Limited() {
		return -1
	}
	return max(r.maxDaily-r.daily.Load(), 0)
}

// ResetAt returns when the current window expires.
func (r *RateLimiter) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}

func (r *RateLimiter) checkDailyReset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.daily.Store(0)
		r.resetAt = now.Add(24 * time.Hour)
	}
}
