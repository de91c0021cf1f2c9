package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSearcher calls a function on each invocation, tracking call count.
type mockSearcher struct {
	calls int
	fn    func(attempt int) ([]model.SourceRecord, error)
}

func (m *mockSearcher) Search(_ context.Context, _, _ string) ([]model.SourceRecord, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	records := []model.SourceRecord{{"id": "1", "title": "Data Engineer"}}
	mock := &mockSearcher{fn: func(_ int) ([]model.SourceRecord, error) {
		return records, nil
	}}

	rs := NewRetrySearcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Search(context.Background(), "data engineer", "paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "1" {
		t.Fatalf("unexpected records: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	records := []model.SourceRecord{{"id": "1"}}
	mock := &mockSearcher{fn: func(attempt int) ([]model.SourceRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return records, nil
	}}

	rs := NewRetrySearcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Search(context.Background(), "data engineer", "paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_UsesRetryAfterDelay(t *testing.T) {
	records := []model.SourceRecord{{"id": "1"}}
	mock := &mockSearcher{fn: func(attempt int) ([]model.SourceRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 20 * time.Millisecond,
				Err:        errors.New("too many requests"),
			}
		}
		return records, nil
	}}

	rs := NewRetrySearcher(mock, 2, 10*time.Hour, discardLogger())
	start := time.Now()
	_, err := rs.Search(context.Background(), "data engineer", "paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Retry-After must override the huge base delay.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("retry took %v, Retry-After was not honored", elapsed)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockSearcher{fn: func(_ int) ([]model.SourceRecord, error) {
		return nil, &model.HTTPError{StatusCode: 401, Err: errors.New("bad credentials")}
	}}

	rs := NewRetrySearcher(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.Search(context.Background(), "data engineer", "paris")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Fatalf("expected HTTPError with status 401, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockSearcher{fn: func(_ int) ([]model.SourceRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rs := NewRetrySearcher(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.Search(context.Background(), "data engineer", "paris")
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockSearcher{fn: func(_ int) ([]model.SourceRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rs := NewRetrySearcher(mock, 2, time.Second, discardLogger())
	_, err := rs.Search(ctx, "data engineer", "paris")
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// Should have made initial call, then been cancelled during backoff.
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}
