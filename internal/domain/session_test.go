package domain

import (
	"errors"
	"testing"
	"time"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRemainingPlusElapsedEqualsLimit(t *testing.T) {
	s := NewQuizSession("s1", 1, 30, testStart)

	for _, offset := range []time.Duration{0, time.Second, 10 * time.Minute, 29*time.Minute + 59*time.Second} {
		now := testStart.Add(offset)
		remaining := s.TimeRemaining(now)
		elapsed := s.TimeElapsed(now)
		if remaining < 0 || elapsed < 0 {
			t.Fatalf("negative timing at %v: remaining=%d elapsed=%d", offset, remaining, elapsed)
		}
		if remaining+elapsed != 30*60 {
			t.Fatalf("at %v remaining+elapsed = %d, want %d", offset, remaining+elapsed, 30*60)
		}
	}
}

func TestIsExpiredBoundary(t *testing.T) {
	s := NewQuizSession("s1", 1, 30, testStart)
	expiry := testStart.Add(30 * time.Minute)

	if s.IsExpired(expiry.Add(-time.Second)) {
		t.Fatalf("expected not expired one second before expiry")
	}
	if !s.IsExpired(expiry) {
		t.Fatalf("expected expired exactly at expiry")
	}
	if !s.IsExpired(expiry.Add(time.Hour)) {
		t.Fatalf("expected expired past expiry")
	}
}

func TestExpiredWithOffsetStoredStartTime(t *testing.T) {
	// Start time stored in a non-UTC zone must still compare correctly.
	loc := time.FixedZone("UTC+3", 3*3600)
	s := NewQuizSession("s1", 1, 30, testStart.In(loc))

	if s.IsExpired(testStart.Add(time.Minute)) {
		t.Fatalf("fresh session reported expired after zone conversion")
	}
	if got := s.TimeRemaining(testStart.Add(time.Minute)); got != 29*60 {
		t.Fatalf("expected 29 minutes remaining, got %d seconds", got)
	}
}

func TestDefaultTimeLimit(t *testing.T) {
	s := NewQuizSession("s1", 1, 0, testStart)
	if s.TimeLimitMinutes != DefaultTimeLimitMinutes {
		t.Fatalf("expected default limit %d, got %d", DefaultTimeLimitMinutes, s.TimeLimitMinutes)
	}
}

func TestZeroLimitSessionProgress(t *testing.T) {
	s := NewQuizSession("s1", 1, 30, testStart)
	s.TimeLimitMinutes = 0

	if got := s.Progress(testStart); got != 100 {
		t.Fatalf("zero-limit progress = %v, want 100", got)
	}
	if !s.IsExpired(testStart.Add(time.Second)) {
		t.Fatalf("zero-limit session should be expired after one second")
	}
}

func TestProgressClamped(t *testing.T) {
	s := NewQuizSession("s1", 1, 30, testStart)

	if got := s.Progress(testStart.Add(15 * time.Minute)); got != 50 {
		t.Fatalf("expected 50%% at half time, got %v", got)
	}
	if got := s.Progress(testStart.Add(2 * time.Hour)); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
	if got := s.Progress(testStart.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestCompleteRecordsScoreOnce(t *testing.T) {
	s := NewQuizSession("s1", 1, 30, testStart)
	now := testStart.Add(10 * time.Minute)

	if err := s.Complete(now, 8, 10); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.Status != StatusCompleted || s.Score != 8 || s.TotalQuestions != 10 {
		t.Fatalf("unexpected state after complete: %+v", s)
	}
	if s.EndTime.IsZero() {
		t.Fatalf("expected end time to be set")
	}

	// Terminal states are sinks.
	if err := s.Complete(now, 10, 10); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
	if err := s.Timeout(now, 0, 10); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
	if err := s.Abandon(now); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
	if s.Score != 8 {
		t.Fatalf("recorded score mutated by rejected transition: %d", s.Score)
	}
}

func TestTimeoutAndAbandon(t *testing.T) {
	now := testStart.Add(31 * time.Minute)

	s := NewQuizSession("s1", 1, 30, testStart)
	if err := s.Timeout(now, 3, 10); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if s.Status != StatusTimedOut || s.Score != 3 {
		t.Fatalf("unexpected state after timeout: %+v", s)
	}
	if s.TimeRemaining(now) != 0 {
		t.Fatalf("terminal session must report 0 remaining")
	}

	s2 := NewQuizSession("s2", 1, 30, testStart)
	if err := s2.Abandon(testStart.Add(time.Minute)); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if s2.Status != StatusAbandoned || s2.Score != 0 {
		t.Fatalf("unexpected state after abandon: %+v", s2)
	}
}

func TestSnapshotFields(t *testing.T) {
	s := NewQuizSession("s1", 7, 30, testStart)
	snap := s.Snapshot(testStart.Add(10 * time.Minute))

	if snap.ID != "s1" || snap.UserID != 7 {
		t.Fatalf("identity fields wrong: %+v", snap)
	}
	if snap.TimeRemainingSecs != 20*60 || snap.TimeElapsedSecs != 10*60 {
		t.Fatalf("timing fields wrong: %+v", snap)
	}
	if snap.IsExpired {
		t.Fatalf("active session within limit reported expired")
	}
	if snap.ExpiryTime != testStart.Add(30*time.Minute).Format(time.RFC3339) {
		t.Fatalf("unexpected expiry time %s", snap.ExpiryTime)
	}
	if snap.EndTime != "" {
		t.Fatalf("active session should not carry an end time")
	}
}
