package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// Limiter enforces a minimum delay between consecutive requests to the
// upstream search API. Adzuna's free tier throttles aggressively, so all
// searchers hitting the API should share a single limiter instance.
type Limiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewLimiter creates a rate limiter that enforces minDelay between
// consecutive requests.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{minDelay: minDelay}
}

// Wait blocks until enough time has passed since the last request.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()

	if l.lastCall.IsZero() {
		// First request — no wait needed.
		l.lastCall = now
		l.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(l.lastCall)
	if elapsed >= l.minDelay {
		// Enough time has passed — proceed immediately.
		l.lastCall = now
		l.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := l.minDelay - elapsed
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait: %w", ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()

	return nil
}

// RateLimitedSearcher is a decorator that enforces the request rate limit
// before delegating to the wrapped Searcher.
type RateLimitedSearcher struct {
	inner   model.Searcher
	limiter *Limiter
}

// NewRateLimitedSearcher wraps a Searcher with rate limiting. All searchers
// targeting the same API should share the same limiter instance.
func NewRateLimitedSearcher(inner model.Searcher, limiter *Limiter) *RateLimitedSearcher {
	return &RateLimitedSearcher{
		inner:   inner,
		limiter: limiter,
	}
}

var _ model.Searcher = (*RateLimitedSearcher)(nil)

// Search waits for the rate limiter to allow a request, then delegates to
// the wrapped searcher.
func (s *RateLimitedSearcher) Search(ctx context.Context, keyword, location string) ([]model.SourceRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, keyword, location)
}
