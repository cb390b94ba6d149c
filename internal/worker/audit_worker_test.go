package worker

import (
	"CineVault/internal/apperr"
	"errors"
	"testing"
	"time"
)

func TestPickRetryDelay(t *testing.T) {
	delays := []time.Duration{5 * time.Second, 30 * time.Second, 2 * time.Minute}

	if got := pickRetryDelay(1, delays); got != 5*time.Second {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := pickRetryDelay(2, delays); got != 30*time.Second {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := pickRetryDelay(3, delays); got != 2*time.Minute {
		t.Fatalf("attempt 3: got %v", got)
	}
	if got := pickRetryDelay(9, delays); got != 2*time.Minute {
		t.Fatalf("attempt beyond table should clamp to last delay, got %v", got)
	}
	if got := pickRetryDelay(0, delays); got != 5*time.Second {
		t.Fatalf("attempt 0 should clamp to first delay, got %v", got)
	}
	if got := pickRetryDelay(1, nil); got != 0 {
		t.Fatalf("empty table: got %v", got)
	}
}

func TestShouldRetry(t *testing.T) {
	if !shouldRetry(apperr.Storage(errors.New("connection refused"))) {
		t.Fatal("store outage should be retried")
	}
	if shouldRetry(apperr.Validation("bad event")) {
		t.Fatal("validation failure is a poison message, not a retry")
	}
	if shouldRetry(errors.New("plain error")) {
		t.Fatal("unclassified errors should dead-letter")
	}
}
