package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

func TestWait_EnforcesMinDelay(t *testing.T) {
	limiter := NewLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_NoDelayAfterGap(t *testing.T) {
	limiter := NewLimiter(50 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Sleep past the window, then the next call should be near-instant.
	time.Sleep(80 * time.Millisecond)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 30*time.Millisecond {
		t.Errorf("expected near-instant wait after gap, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(5 * time.Second) // long delay
	ctx := context.Background()

	// First call to seed the last-call time.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Cancel the context before the wait completes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := limiter.Wait(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// --- Mock for RateLimitedSearcher test ---

type recordingSearcher struct {
	called bool
}

func (s *recordingSearcher) Search(_ context.Context, _, _ string) ([]model.SourceRecord, error) {
	s.called = true
	return nil, nil
}

func TestRateLimitedSearcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewLimiter(100 * time.Millisecond)
	inner := &recordingSearcher{}
	searcher := NewRateLimitedSearcher(inner, limiter)
	ctx := context.Background()

	// First call — seeds limiter, then delegates.
	if _, err := searcher.Search(ctx, "data engineer", "paris"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if !inner.called {
		t.Fatal("inner searcher was not called on first search")
	}

	// Reset.
	inner.called = false

	// Second call — should wait for the rate limiter.
	start := time.Now()
	if _, err := searcher.Search(ctx, "data engineer", "paris"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner searcher was not called on second search")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second search, got %v", elapsed)
	}
}
