package domain

import (
	"time"

	"timed-quiz-service/internal/clock"
)

// Status enumerates the quiz session lifecycle. Active is the only state with
// outgoing transitions; the other three are terminal sinks.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusAbandoned Status = "abandoned"
)

// DefaultTimeLimitMinutes applies when a caller does not supply a limit.
const DefaultTimeLimitMinutes = 30

// QuizSession tracks one timed quiz attempt. All timing fields are derived
// from StartTime and a caller-supplied now; nothing here reads the wall clock
// directly, so the clock package stays the single normalization point.
type QuizSession struct {
	ID               string
	UserID           int64
	StartTime        time.Time
	EndTime          time.Time
	TimeLimitMinutes int
	Status           Status
	Score            int
	TotalQuestions   int
}

// NewQuizSession starts a session at the given instant. A non-positive limit
// falls back to the default.
func NewQuizSession(id string, userID int64, limitMinutes int, now time.Time) *QuizSession {
	if limitMinutes <= 0 {
		limitMinutes = DefaultTimeLimitMinutes
	}
	return &QuizSession{
		ID:               id,
		UserID:           userID,
		StartTime:        clock.EnsureUTC(now),
		TimeLimitMinutes: limitMinutes,
		Status:           StatusActive,
	}
}

// ExpiryTime is StartTime plus the configured limit.
func (s *QuizSession) ExpiryTime() time.Time {
	return clock.EnsureUTC(s.StartTime).Add(time.Duration(s.TimeLimitMinutes) * time.Minute)
}

// IsExpired reports whether the session's time has run out at the given
// instant. Any non-active session counts as expired.
func (s *QuizSession) IsExpired(now time.Time) bool {
	if s.Status != StatusActive {
		return true
	}
	return !clock.EnsureUTC(now).Before(s.ExpiryTime())
}

// TimeRemaining returns whole seconds left before expiry, 0 once expired or
// once the session has left the active state.
func (s *QuizSession) TimeRemaining(now time.Time) int {
	if s.Status != StatusActive {
		return 0
	}
	remaining := clock.SecondsBetween(now, s.ExpiryTime())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeElapsed returns whole seconds since the session started.
func (s *QuizSession) TimeElapsed(now time.Time) int {
	elapsed := clock.SecondsBetween(s.StartTime, now)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Progress is elapsed time as a percentage of the limit, clamped to [0,100].
// A zero limit counts as fully elapsed.
func (s *QuizSession) Progress(now time.Time) float64 {
	total := s.TimeLimitMinutes * 60
	if total == 0 {
		return 100
	}
	progress := float64(s.TimeElapsed(now)) / float64(total) * 100
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// Complete marks the session finished before expiry and records the score.
func (s *QuizSession) Complete(now time.Time, score, total int) error {
	return s.finish(StatusCompleted, now, score, total)
}

// Timeout marks the session expired, recording whatever partial score the
// user had accumulated.
func (s *QuizSession) Timeout(now time.Time, score, total int) error {
	return s.finish(StatusTimedOut, now, score, total)
}

// Abandon marks the session cancelled by the user. No score is recorded.
func (s *QuizSession) Abandon(now time.Time) error {
	return s.finish(StatusAbandoned, now, 0, 0)
}

func (s *QuizSession) finish(status Status, now time.Time, score, total int) error {
	if s.Status != StatusActive {
		return ErrSessionNotActive
	}
	s.Status = status
	s.EndTime = clock.EnsureUTC(now)
	s.Score = score
	s.TotalQuestions = total
	return nil
}

// SessionSnapshot is the JSON view of a session with its derived timing
// fields materialized against a single instant.
type SessionSnapshot struct {
	ID                 string  `json:"id"`
	UserID             int64   `json:"user_id"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time,omitempty"`
	TimeLimitMinutes   int     `json:"time_limit_minutes"`
	Status             Status  `json:"status"`
	Score              int     `json:"score"`
	TotalQuestions     int     `json:"total_questions"`
	TimeRemainingSecs  int     `json:"time_remaining_seconds"`
	TimeElapsedSecs    int     `json:"time_elapsed_seconds"`
	IsExpired          bool    `json:"is_expired"`
	ProgressPercentage float64 `json:"progress_percentage"`
	ExpiryTime         string  `json:"expiry_time"`
}

// Snapshot materializes the session and its derived fields at the given instant.
func (s *QuizSession) Snapshot(now time.Time) SessionSnapshot {
	snap := SessionSnapshot{
		ID:                 s.ID,
		UserID:             s.UserID,
		StartTime:          clock.EnsureUTC(s.StartTime).Format(time.RFC3339),
		TimeLimitMinutes:   s.TimeLimitMinutes,
		Status:             s.Status,
		Score:              s.Score,
		TotalQuestions:     s.TotalQuestions,
		TimeRemainingSecs:  s.TimeRemaining(now),
		TimeElapsedSecs:    s.TimeElapsed(now),
		IsExpired:          s.IsExpired(now),
		ProgressPercentage: s.Progress(now),
		ExpiryTime:         s.ExpiryTime().Format(time.RFC3339),
	}
	if !s.EndTime.IsZero() {
		snap.EndTime = clock.EnsureUTC(s.EndTime).Format(time.RFC3339)
	}
	return snap
}

// Clone returns a copy so repositories can hand out sessions without sharing
// mutable state across requests.
func (s *QuizSession) Clone() *QuizSession {
	c := *s
	return &c
}
