package shared

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultStoreTimeout bounds a single collaborator store call.
const DefaultStoreTimeout = 2 * time.Second

// WithStoreTimeout runs fn with a deadline and converts deadline expiry into
// ErrTransient so callers never hang on a slow store.
func WithStoreTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

// RetryTransient invokes fn and retries exactly once when it fails with
// ErrTransient. Other errors are returned immediately.
func RetryTransient(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errors.Is(err, ErrTransient) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn(ctx)
}
