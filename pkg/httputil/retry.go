package httputil

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig bounds an attempt loop. Delay grows linearly: the wait after
// attempt n is n*Delay.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// ExhaustedError is returned when every attempt failed. Last holds the error
// of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Retry stops without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// DefaultRetryConfig is three attempts with a three second unit.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       3 * time.Second,
	}
}

// Retry runs op until it succeeds, returns a Permanent error, the context ends
// or MaxAttempts is reached. attempt starts at 1.
func Retry(ctx context.Context, cfg RetryConfig, op func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err

		if attempt == cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*cfg.Delay); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Last: last}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
