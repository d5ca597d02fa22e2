package api

import (
	"strconv"
	"testing"
	"time"
)

func TestAttemptLimiterWindowAndReset(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(1, time.Hour)
	key := "127.0.0.1"
	now := time.Now().UTC()

	limiter.addFailure(key, now.Add(-2*time.Hour))
	if limiter.blocked(key, now) {
		t.Fatal("expected old attempt to be pruned from active window")
	}

	limiter.addFailure(key, now.Add(-30*time.Minute))
	if !limiter.blocked(key, now) {
		t.Fatal("expected one recent attempt to hit limit 1")
	}

	limiter.reset(key)
	if limiter.blocked(key, now) {
		t.Fatal("expected no attempts after reset")
	}
}

func TestAttemptLimiterBlocksAtLimit(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(loginAttemptLimit, loginAttemptWindow)
	now := time.Now().UTC()
	for attempt := 0; attempt < loginAttemptLimit-1; attempt++ {
		limiter.addFailure("10.0.0.1", now)
	}
	if limiter.blocked("10.0.0.1", now) {
		t.Fatalf("expected %d failures to stay under the limit", loginAttemptLimit-1)
	}

	limiter.addFailure("10.0.0.1", now)
	if !limiter.blocked("10.0.0.1", now) {
		t.Fatal("expected limit to be reached")
	}
	if limiter.blocked("10.0.0.2", now) {
		t.Fatal("expected other clients to be unaffected")
	}
	if limiter.blocked("10.0.0.1", now.Add(loginAttemptWindow+time.Second)) {
		t.Fatal("expected failures to expire after the window")
	}
}

func TestAttemptLimiterEvictsStaleKeys(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(3, time.Minute)
	old := time.Now().UTC().Add(-time.Hour)
	for index := 0; index < maxTrackedKeys; index++ {
		limiter.addFailure("stale-"+strconv.Itoa(index), old)
	}

	limiter.addFailure("fresh", time.Now().UTC())

	limiter.mu.Lock()
	tracked := len(limiter.attempts)
	limiter.mu.Unlock()
	if tracked != 1 {
		t.Fatalf("expected stale keys to be evicted, %d keys tracked", tracked)
	}
}
