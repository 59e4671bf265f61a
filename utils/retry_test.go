package utils

import (
	"errors"
	"testing"
)

func TestRetrySucceedsWithinBudget(t *testing.T) {
	r := RetryConfig{MaxAttempts: 3, BaseDelay: 0, Logger: NewLogger()}

	calls := 0
	err := r.Do("flaky op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on attempt 3, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	r := RetryConfig{MaxAttempts: 2, BaseDelay: 0, Logger: NewLogger()}

	sentinel := errors.New("still down")
	calls := 0
	err := r.Do("dead op", func() error {
		calls++
		return sentinel
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
}
