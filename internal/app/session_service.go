package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/clock"
	"timed-quiz-service/internal/domain"
)

// Time limit bounds, matching what the session API accepts.
const (
	MinTimeLimitMinutes = 1
	MaxTimeLimitMinutes = 180
	MinExtendMinutes    = 1
	MaxExtendMinutes    = 30
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Postgres).
// Finish and Extend are conditional writes: they only apply while the stored
// session is still active and report ErrSessionNotActive otherwise, which is
// what gives racing requests at-most-once transition semantics.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.QuizSession) error
	Get(ctx context.Context, id string) (*domain.QuizSession, error)
	GetActive(ctx context.Context, userID int64) (*domain.QuizSession, error)
	Finish(ctx context.Context, id string, status domain.Status, endTime time.Time, score, total int) error
	Extend(ctx context.Context, id string, additionalMinutes int) error
}

// QuestionRepository loads the question bank (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]domain.Question, error)
}

// ResultRepository records the per-user score history.
type ResultRepository interface {
	UpsertResult(ctx context.Context, userID int64, score int) error
}

// ActiveSessionIndex is an optional fast lookup of a user's active session ID,
// with a TTL tied to the session's remaining time. Purely advisory: the
// session repository stays authoritative and every miss falls through to it.
type ActiveSessionIndex interface {
	Set(ctx context.Context, userID int64, sessionID string, ttl time.Duration)
	Get(ctx context.Context, userID int64) (string, bool)
	Clear(ctx context.Context, userID int64)
}

// SessionService owns the timed-session use cases: starting attempts,
// validating them against the server clock, scoring submissions, and the
// three terminal transitions. Expiry is detected lazily on access; there is
// no background sweeper.
type SessionService struct {
	sessions     SessionRepository
	questions    QuestionRepository
	results      ResultRepository
	index        ActiveSessionIndex
	now          clock.NowFunc
	defaultLimit int
}

func NewSessionService(sessions SessionRepository, questions QuestionRepository, results ResultRepository) *SessionService {
	return &SessionService{
		sessions:     sessions,
		questions:    questions,
		results:      results,
		now:          clock.Now,
		defaultLimit: domain.DefaultTimeLimitMinutes,
	}
}

// WithDefaultLimit overrides the limit applied when Start is called with 0.
// Out-of-range values keep the current default.
func (s *SessionService) WithDefaultLimit(minutes int) *SessionService {
	if minutes >= MinTimeLimitMinutes && minutes <= MaxTimeLimitMinutes {
		s.defaultLimit = minutes
	}
	return s
}

// WithIndex attaches an active-session index (e.g. Redis-backed).
func (s *SessionService) WithIndex(index ActiveSessionIndex) *SessionService {
	s.index = index
	return s
}

// WithClock substitutes the time source for deterministic tests.
func (s *SessionService) WithClock(now clock.NowFunc) *SessionService {
	s.now = now
	return s
}

// Now exposes the service clock so transport layers report the same
// server_time the session math used.
func (s *SessionService) Now() time.Time {
	return s.now()
}

// Start creates a new timed session for the user. Any prior active session is
// abandoned first, so at most one active session per user exists afterwards.
// A zero limit selects the default; out-of-range limits are rejected.
func (s *SessionService) Start(ctx context.Context, userID int64, limitMinutes int) (*domain.QuizSession, error) {
	if limitMinutes == 0 {
		limitMinutes = s.defaultLimit
	}
	if limitMinutes < MinTimeLimitMinutes || limitMinutes > MaxTimeLimitMinutes {
		return nil, domain.ErrInvalidTimeLimit
	}

	now := s.now()
	if prior, err := s.sessions.GetActive(ctx, userID); err == nil {
		// Supersede: a lost race here just means another request already
		// moved the prior session to a terminal state.
		ferr := s.sessions.Finish(ctx, prior.ID, domain.StatusAbandoned, now, 0, 0)
		if ferr != nil && !errors.Is(ferr, domain.ErrSessionNotActive) {
			return nil, ferr
		}
	} else if !errors.Is(err, domain.ErrNoActiveSession) {
		return nil, err
	}

	session := domain.NewQuizSession(uuid.NewString(), userID, limitMinutes, now)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	if s.index != nil {
		s.index.Set(ctx, userID, session.ID, time.Duration(session.TimeLimitMinutes)*time.Minute)
	}
	return session, nil
}

// GetActive returns the user's current active session. The index, when
// attached, is consulted first as a fast path; a hint that points at a
// missing or finished session is dropped and the repository answers.
func (s *SessionService) GetActive(ctx context.Context, userID int64) (*domain.QuizSession, error) {
	if s.index != nil {
		if id, ok := s.index.Get(ctx, userID); ok {
			session, err := s.sessions.Get(ctx, id)
			if err == nil && session.UserID == userID && session.Status == domain.StatusActive {
				return session, nil
			}
			if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
				s.index.Clear(ctx, userID)
			}
		}
	}
	return s.sessions.GetActive(ctx, userID)
}

// ValidateTime checks a session against the server clock. An active session
// past its expiry is transitioned to timed_out as a side effect before the
// invalid result is reported; every read path that cares about status calls
// this first, which is how lazy expiry stays consistent without a sweeper.
func (s *SessionService) ValidateTime(ctx context.Context, session *domain.QuizSession) (bool, string) {
	if session == nil {
		return false, "no active quiz session"
	}
	now := s.now()
	if session.Status == domain.StatusActive && !session.IsExpired(now) {
		return true, "session is valid"
	}
	if session.Status == domain.StatusActive {
		err := s.sessions.Finish(ctx, session.ID, domain.StatusTimedOut, now, session.Score, session.TotalQuestions)
		if err == nil || errors.Is(err, domain.ErrSessionNotActive) {
			session.Status = domain.StatusTimedOut
			session.EndTime = clock.EnsureUTC(now)
			s.clearIndex(ctx, session.UserID)
		}
	}
	return false, "quiz time has expired"
}

// SubmitResult reports the outcome of a quiz submission.
type SubmitResult struct {
	Score    int
	Total    int
	TimedOut bool
}

// Submit scores the user's answers and finishes their active session. A
// submission that arrives after expiry still gets its partial answers scored
// and recorded under the timed_out label; the returned error is
// ErrSessionExpired in that case so the route layer can flag it.
func (s *SessionService) Submit(ctx context.Context, userID int64, answers map[string]string) (SubmitResult, error) {
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}

	questions, err := s.questions.GetQuestions(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	score := Score(answers, questions)
	total := len(questions)
	result := SubmitResult{Score: score, Total: total}
	now := s.now()

	status := domain.StatusCompleted
	if session.IsExpired(now) {
		status = domain.StatusTimedOut
		result.TimedOut = true
	}

	if err := s.sessions.Finish(ctx, session.ID, status, now, score, total); err != nil {
		// A racing request already finished this session; its recorded
		// score stands and this submission is rejected.
		return result, err
	}
	s.clearIndex(ctx, userID)

	if s.results != nil {
		if err := s.results.UpsertResult(ctx, userID, score); err != nil {
			return result, err
		}
	}

	if result.TimedOut {
		return result, domain.ErrSessionExpired
	}
	return result, nil
}

// Abandon cancels the user's active session without recording a score.
func (s *SessionService) Abandon(ctx context.Context, userID int64) error {
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.sessions.Finish(ctx, session.ID, domain.StatusAbandoned, s.now(), 0, 0); err != nil {
		return err
	}
	s.clearIndex(ctx, userID)
	return nil
}

// Extend adds time to the user's active session. Bounded to keep the
// endpoint from erasing the limit entirely.
func (s *SessionService) Extend(ctx context.Context, userID int64, additionalMinutes int) (*domain.QuizSession, error) {
	if additionalMinutes < MinExtendMinutes || additionalMinutes > MaxExtendMinutes {
		return nil, domain.ErrInvalidTimeLimit
	}
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if valid, _ := s.ValidateTime(ctx, session); !valid {
		return nil, domain.ErrSessionExpired
	}
	if err := s.sessions.Extend(ctx, session.ID, additionalMinutes); err != nil {
		return nil, err
	}
	session.TimeLimitMinutes += additionalMinutes
	if s.index != nil {
		remaining := time.Duration(session.TimeRemaining(s.now())) * time.Second
		s.index.Set(ctx, userID, session.ID, remaining)
	}
	return session, nil
}

// StatusReport is the JSON status payload consumed by polling clients.
type StatusReport struct {
	Session    domain.SessionSnapshot `json:"session"`
	IsValid    bool                   `json:"is_valid"`
	Message    string                 `json:"message"`
	ServerTime string                 `json:"server_time"`
}

// Status validates the user's active session and materializes its snapshot
// together with the server time for client clock reconciliation.
func (s *SessionService) Status(ctx context.Context, userID int64) (StatusReport, error) {
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return StatusReport{}, err
	}
	valid, message := s.ValidateTime(ctx, session)
	now := s.now()
	return StatusReport{
		Session:    session.Snapshot(now),
		IsValid:    valid,
		Message:    message,
		ServerTime: now.Format(time.RFC3339),
	}, nil
}

// GetQuestions exposes the question bank for rendering the quiz page.
func (s *SessionService) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.questions.GetQuestions(ctx)
}

func (s *SessionService) clearIndex(ctx context.Context, userID int64) {
	if s.index != nil {
		s.index.Clear(ctx, userID)
	}
}
