package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRetryable = errors.New("retryable")

func retryAllClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteRetriesUpToMaxAttempts(t *testing.T) {
	executor := NewExecutor(Config{
		RetryMaxAttempts: 3,
		RetryBackoffStep: time.Millisecond,
		RetryMaxBackoff:  time.Millisecond,
		BreakerEnabled:   false,
	})

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errRetryable
	}, retryAllClassifier)

	if !errors.Is(err, errRetryable) {
		t.Fatalf("expected final error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryNonRetryable(t *testing.T) {
	executor := NewExecutor(Config{
		RetryMaxAttempts: 3,
		RetryBackoffStep: time.Millisecond,
		BreakerEnabled:   false,
	})

	calls := 0
	_ = executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("permanent")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})

	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	executor := NewExecutor(Config{
		RetryMaxAttempts: 5,
		RetryBackoffStep: time.Hour,
		RetryMaxBackoff:  time.Hour,
		BreakerEnabled:   false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- executor.Execute(ctx, "op", func(context.Context) error {
			calls++
			cancel()
			return errRetryable
		}, retryAllClassifier)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, errRetryable) {
			t.Fatalf("expected last operation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled execute did not return")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
