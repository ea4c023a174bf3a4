package util

import (
	"context"
	"testing"
	"time"
)

func TestExponentialBackoff_Table(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{-1, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}

	for _, tt := range tests {
		if got := ExponentialBackoff(time.Second, tt.attempt); got != tt.expected {
			t.Errorf("ExponentialBackoff(1s, %d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestExponentialBackoff_HighAttemptDoesNotOverflow(t *testing.T) {
	if got := ExponentialBackoff(time.Nanosecond, 100); got <= 0 {
		t.Errorf("expected positive backoff for high attempt, got %v", got)
	}
}

func TestLinearBackoff(t *testing.T) {
	if got := LinearBackoff(time.Second, 2); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := LinearBackoff(time.Second, 0); got != 0 {
		t.Errorf("expected 0 for attempt 0, got %v", got)
	}
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("sleep did not return promptly after cancellation")
	}
}

func TestSleep_Waits(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected to wait at least 20ms, waited %v", elapsed)
	}
}
