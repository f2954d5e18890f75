package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	var calls int
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 5, Delay: time.Millisecond}, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		wantCalls   int
	}{
		{name: "threeAttempts", maxAttempts: 3, wantCalls: 3},
		{name: "singleAttempt", maxAttempts: 1, wantCalls: 1},
		{name: "zeroMeansOne", maxAttempts: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			err := Retry(context.Background(), RetryConfig{MaxAttempts: tt.maxAttempts, Delay: time.Millisecond}, func(attempt int) error {
				calls++
				return errors.New("attempt failed")
			})

			var exhausted *ExhaustedError
			if !errors.As(err, &exhausted) {
				t.Fatalf("expected ExhaustedError, got %v", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if exhausted.Attempts != tt.wantCalls {
				t.Errorf("Attempts = %d, want %d", exhausted.Attempts, tt.wantCalls)
			}
		})
	}
}

func TestRetryKeepsLastError(t *testing.T) {
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3}, func(attempt int) error {
		if attempt == 3 {
			return errors.New("third")
		}
		return errors.New("earlier")
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Last.Error() != "third" {
		t.Errorf("Last = %v, want third", exhausted.Last)
	}
}

func TestRetryPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	var calls int
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3}, func(attempt int) error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryLinearBackoff(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), RetryConfig{MaxAttempts: 3, Delay: 20 * time.Millisecond}, func(attempt int) error {
		return errors.New("fail")
	})
	// waits 1*20ms then 2*20ms
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms of backoff, got %v", elapsed)
	}
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Retry(ctx, RetryConfig{MaxAttempts: 5, Delay: time.Second}, func(attempt int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 3 || cfg.Delay != 3*time.Second {
		t.Errorf("DefaultRetryConfig() = %+v, want 3 attempts with 3s delay", cfg)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *StatusError
		want string
	}{
		{name: "withBody", err: &StatusError{StatusCode: 502, Body: "bad gateway"}, want: "HTTP 502: bad gateway"},
		{name: "emptyBody", err: &StatusError{StatusCode: 429}, want: "HTTP 429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
