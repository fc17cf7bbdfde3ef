// Package errors provides fallback chains for Mentora.
package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ============================================================
// Fallback Chains
// ============================================================

// Source names where a result came from.
type Source string

const (
	SourceOnDevice  Source = "on-device"
	SourceBackend   Source = "backend"
	SourceSimulated Source = "simulated"
)

// Attempt is one candidate in a fallback chain.
type Attempt[T any] struct {
	// Source identifies the candidate in results and errors
	Source Source

	// Run performs the attempt. A nil error stops the chain.
	Run func(ctx context.Context) (T, error)

	// When, if set, gates the attempt on the errors collected so far.
	// Returning false skips it.
	When func(prev []error) bool
}

// AttemptError records the failure of one attempt.
type AttemptError struct {
	Source Source
	Err    error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// FirstSuccess runs attempts in order and returns the first successful
// result with its source. When every attempt fails (or is skipped) the
// returned error joins the individual AttemptErrors.
func FirstSuccess[T any](ctx context.Context, attempts ...Attempt[T]) (T, Source, error) {
	var zero T
	var failures []error

	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			failures = append(failures, &AttemptError{Source: a.Source, Err: err})
			break
		}
		if a.When != nil && !a.When(failures) {
			continue
		}
		result, err := a.Run(ctx)
		if err == nil {
			return result, a.Source, nil
		}
		failures = append(failures, &AttemptError{Source: a.Source, Err: err})
	}

	if len(failures) == 0 {
		return zero, "", New(CodeModelUnavailable, "no candidate available", CategorySystem)
	}
	return zero, "", errors.Join(failures...)
}

// AnyNotInitialized is a When gate that passes once a previous attempt
// failed because the engine was not initialized.
func AnyNotInitialized(prev []error) bool {
	for _, err := range prev {
		if IsNotInitialized(err) {
			return true
		}
	}
	return false
}

// ============================================================
// Timeout
// ============================================================

// WithTimeoutResult executes fn under a derived deadline, returning its result.
func WithTimeoutResult[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, Wrap(err, CodeModelUnavailable, fmt.Sprintf("operation timed out after %v", timeout), CategoryTemporary)
	}
	return result, err
}
