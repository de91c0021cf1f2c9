package model

import (
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
// Adzuna signals quota exhaustion with 429 and a Retry-After header.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// LoadError reports a chunked upsert that failed partway. Chunks commit
// independently, so Written rows are durable even though the load as a
// whole did not finish.
type LoadError struct {
	Written int // rows committed before the failing chunk
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load stopped after %d rows: %v", e.Written, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
