// Package retry runs an operation with linear backoff as a cancellable task.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 10
	DefaultBaseDelay   = 50 * time.Millisecond
)

// Policy controls how many times an operation runs and how long to wait in
// between. The wait before attempt n+1 is n*BaseDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The task stops and returns err
// unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Func is one attempt. attempt starts at 1.
type Func[T any] func(ctx context.Context, attempt int) (T, error)

// Task is a retrying operation running in its own goroutine.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	value  T
	err    error
}

// Start launches fn under policy. The task stops early when ctx is done or
// Cancel is called.
func Start[T any](ctx context.Context, policy Policy, fn Func[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		t.value, t.err = run(ctx, policy, fn)
	}()
	return t
}

// Wait blocks until the task finishes.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}

// Done is closed when the task finishes.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel stops any pending delay. Wait then returns context.Canceled unless
// the task already finished.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Do runs fn under policy and blocks until it succeeds or gives up.
func Do[T any](ctx context.Context, policy Policy, fn Func[T]) (T, error) {
	return run(ctx, policy, fn)
}

func run[T any](ctx context.Context, policy Policy, fn Func[T]) (T, error) {
	var zero T
	maxAttempts := policy.attempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx, attempt)
		if err == nil {
			return value, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		log.Debug().
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("Attempt failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}
