package memory

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/clock"
	"timed-quiz-service/internal/domain"
)

// SessionRepository is an in-memory implementation of app.SessionRepository,
// used for development mode and tests. Finish and Extend apply only while the
// stored session is still active, mirroring the conditional UPDATE the
// Postgres implementation uses.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.QuizSession
}

var _ app.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.QuizSession)}
}

func (r *SessionRepository) Create(_ context.Context, session *domain.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (*domain.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (r *SessionRepository) GetActive(_ context.Context, userID int64) (*domain.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.sessions {
		if session.UserID == userID && session.Status == domain.StatusActive {
			return session.Clone(), nil
		}
	}
	return nil, domain.ErrNoActiveSession
}

func (r *SessionRepository) Finish(_ context.Context, id string, status domain.Status, endTime time.Time, score, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusActive {
		return domain.ErrSessionNotActive
	}
	session.Status = status
	session.EndTime = clock.EnsureUTC(endTime)
	session.Score = score
	session.TotalQuestions = total
	return nil
}

func (r *SessionRepository) Extend(_ context.Context, id string, additionalMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusActive {
		return domain.ErrSessionNotActive
	}
	session.TimeLimitMinutes += additionalMinutes
	return nil
}
