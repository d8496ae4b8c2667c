package services

import (
	"testing"
	"time"
)

func TestAttemptLimiterFailsClosedAtThreshold(t *testing.T) {
	now := time.Now()
	limiter := NewAttemptLimiter(5, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if !limiter.Allow("user@example.edu") {
			t.Fatalf("attempt %d: expected allow below threshold", i)
		}
		limiter.RecordFailure("user@example.edu")
	}

	if limiter.Allow("user@example.edu") {
		t.Fatalf("expected fail-closed at threshold")
	}
}

func TestAttemptLimiterDecays(t *testing.T) {
	now := time.Now()
	limiter := NewAttemptLimiter(5, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		limiter.RecordFailure("user@example.edu")
	}
	if limiter.Allow("user@example.edu") {
		t.Fatalf("expected fail-closed at threshold")
	}

	// After a full window the counter has fully decayed.
	now = now.Add(15 * time.Minute)
	if !limiter.Allow("user@example.edu") {
		t.Fatalf("expected allow after decay window")
	}
}

func TestAttemptLimiterResetClearsKey(t *testing.T) {
	now := time.Now()
	limiter := NewAttemptLimiter(5, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		limiter.RecordFailure("user@example.edu")
	}
	limiter.Reset("user@example.edu")

	if !limiter.Allow("user@example.edu") {
		t.Fatalf("expected allow after reset")
	}
}

func TestAttemptLimiterIsolatesKeys(t *testing.T) {
	now := time.Now()
	limiter := NewAttemptLimiter(5, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		limiter.RecordFailure("a@example.edu")
	}

	if limiter.Allow("a@example.edu") {
		t.Fatalf("expected a to be blocked")
	}
	if !limiter.Allow("b@example.edu") {
		t.Fatalf("expected b to be unaffected")
	}
}
