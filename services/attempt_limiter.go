package services

import (
	"sync"
	"time"
)

// AttemptLimiter is a decaying failure counter keyed by an arbitrary
// string (normally a user id or address). Each recorded failure adds
// one; the count decays linearly over the window. Once the threshold is
// reached the key fails closed until enough of the window has elapsed.
type AttemptLimiter struct {
	mu        sync.Mutex
	threshold float64
	window    time.Duration
	entries   map[string]*attemptEntry
	now       func() time.Time
}

type attemptEntry struct {
	count   float64
	updated time.Time
}

// NewAttemptLimiter creates a limiter allowing at most threshold
// failures per window.
func NewAttemptLimiter(threshold int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		threshold: float64(threshold),
		window:    window,
		entries:   make(map[string]*attemptEntry),
		now:       time.Now,
	}
}

func (l *AttemptLimiter) decayed(e *attemptEntry, now time.Time) float64 {
	elapsed := now.Sub(e.updated)
	if elapsed <= 0 {
		return e.count
	}
	decay := l.threshold * float64(elapsed) / float64(l.window)
	count := e.count - decay
	if count < 0 {
		return 0
	}
	return count
}

// Allow reports whether the key is still under the threshold.
func (l *AttemptLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return true
	}
	now := l.now()
	count := l.decayed(e, now)
	if count == 0 {
		delete(l.entries, key)
		return true
	}
	e.count = count
	e.updated = now
	return count < l.threshold
}

// RecordFailure registers one failed attempt for the key.
func (l *AttemptLimiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		l.entries[key] = &attemptEntry{count: 1, updated: now}
		return
	}
	e.count = l.decayed(e, now) + 1
	e.updated = now
}

// Reset clears the key after a successful attempt.
func (l *AttemptLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
