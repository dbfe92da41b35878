package retry

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted matches any ExhaustedError via errors.Is.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError reports an operation that failed on every attempt.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

// Error names the operation and the final failure.
func (err *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: max retries exceeded after %d attempts: %v", err.Op, err.Attempts, err.Last)
}

// Unwrap exposes both the sentinel and the last underlying failure.
func (err *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, err.Last}
}

// Do invokes fn and re-invokes it up to maxRetries more times on failure, with no
// backoff between attempts. Context cancellation stops further attempts and is
// returned as-is.
func Do[T any](ctx context.Context, op string, maxRetries int, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempts := 0
	var last error
	for attempts <= maxRetries {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		attempts++
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		last = err
	}
	return zero, &ExhaustedError{Op: op, Attempts: attempts, Last: last}
}
