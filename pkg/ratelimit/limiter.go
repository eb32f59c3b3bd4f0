// Package ratelimit implements the per-key rate limiter guarding LLM
// calls: a token bucket from golang.org/x/time/rate for the request rate,
// a second rate.Limiter for token throughput, layered with a per-day
// request ceiling and a concurrency semaphore.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config tunes a Limiter. RequestsPerDay of 0 means unlimited.
// TokensPerMinute of 0 means the token bucket is not rate-limited.
type Config struct {
	RequestsPerMinute int
	RequestsPerDay    int
	TokensPerMinute   int
	MaxConcurrent     int
	BurstLimit        int
	RetryAfter429     time.Duration
}

// DefaultConfig returns a permissive baseline: no request or token
// ceilings beyond a generous burst, one concurrent call.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 0,
		RequestsPerDay:    0,
		TokensPerMinute:   0,
		MaxConcurrent:     1,
		BurstLimit:        60,
		RetryAfter429:     30 * time.Second,
	}
}

// RateLimitExceeded is raised when the per-day request ceiling has been
// reached. It carries how long the caller should wait before retrying.
type RateLimitExceeded struct {
	RetryAfter time.Duration
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("ratelimit: daily request ceiling exceeded, retry after %s", e.RetryAfter)
}

// Limiter guards a single key (typically "provider:model"): a
// golang.org/x/time/rate limiter for requests, a second one for tokens,
// a per-day request counter, and a concurrency semaphore (§5).
type Limiter struct {
	cfg Config

	requests *rate.Limiter
	tokens   *rate.Limiter
	sem      *semaphore.Weighted

	mu              sync.Mutex
	dayStart        time.Time
	requestCountDay int
}

// New returns a Limiter governed by cfg.
func New(cfg Config) *Limiter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = 60
	}
	if cfg.RetryAfter429 <= 0 {
		cfg.RetryAfter429 = 30 * time.Second
	}

	requestRate := rate.Limit(float64(cfg.BurstLimit) / 60.0)
	if cfg.RequestsPerMinute > 0 {
		requestRate = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	l := &Limiter{
		cfg:      cfg,
		requests: rate.NewLimiter(requestRate, cfg.BurstLimit),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		dayStart: time.Now(),
	}
	if cfg.TokensPerMinute > 0 {
		l.tokens = rate.NewLimiter(rate.Limit(float64(cfg.TokensPerMinute)/60.0), cfg.TokensPerMinute)
	}
	return l
}

// resetDayWindow rolls the day counter over if its window has elapsed.
// Must be called with l.mu held.
func (l *Limiter) resetDayWindow(now time.Time) {
	if now.Sub(l.dayStart) >= 24*time.Hour {
		l.dayStart = now
		l.requestCountDay = 0
	}
}

// Wait blocks until the request bucket (and, if TokensPerMinute is
// configured, the token bucket for n tokens) admits the call, and the
// per-day request ceiling has not been reached. It returns
// RateLimitExceeded immediately, without waiting, if the daily ceiling
// is already hit.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}

	l.mu.Lock()
	now := time.Now()
	l.resetDayWindow(now)
	if l.cfg.RequestsPerDay > 0 && l.requestCountDay >= l.cfg.RequestsPerDay {
		retryAfter := l.dayStart.Add(24 * time.Hour).Sub(now)
		l.mu.Unlock()
		return &RateLimitExceeded{RetryAfter: retryAfter}
	}
	l.mu.Unlock()

	if err := l.requests.Wait(ctx); err != nil {
		return err
	}
	if l.tokens != nil {
		if err := l.tokens.WaitN(ctx, n); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.requestCountDay++
	l.mu.Unlock()
	return nil
}

// release is returned by AcquireWithTokens and must be called to free
// the concurrency permit.
type release func()

// AcquireWithTokens waits for n tokens (as Wait does) and then acquires
// a concurrency permit, returning a release function that must be
// called exactly once.
func (l *Limiter) AcquireWithTokens(ctx context.Context, n int) (release, error) {
	if err := l.Wait(ctx, n); err != nil {
		return nil, err
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}

// Handle429 drains both buckets and blocks for retryAfter (or the
// limiter's configured RetryAfter429 if retryAfter is zero) before
// returning, so the next Wait call starts its refill from empty.
func (l *Limiter) Handle429(ctx context.Context, retryAfter time.Duration) error {
	if retryAfter <= 0 {
		retryAfter = l.cfg.RetryAfter429
	}
	l.requests.SetBurst(0)
	if l.tokens != nil {
		l.tokens.SetBurst(0)
	}

	timer := time.NewTimer(retryAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	l.requests.SetBurst(l.burstLimit())
	if l.tokens != nil {
		l.tokens.SetBurst(l.cfg.TokensPerMinute)
	}
	return nil
}

func (l *Limiter) burstLimit() int {
	if l.cfg.BurstLimit <= 0 {
		return 60
	}
	return l.cfg.BurstLimit
}

// Snapshot reports the limiter's current counters, for observability.
type Snapshot struct {
	RequestTokensAvailable float64
	TokenBucketAvailable   float64
	RequestCountDay        int
}

// Snapshot returns the limiter's current state.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		RequestTokensAvailable: l.requests.Tokens(),
		RequestCountDay:        l.requestCountDay,
	}
	if l.tokens != nil {
		s.TokenBucketAvailable = l.tokens.Tokens()
	}
	return s
}
