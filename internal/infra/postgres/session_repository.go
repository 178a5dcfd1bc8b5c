package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/clock"
	"timed-quiz-service/internal/domain"
)

// SessionRepository persists quiz sessions in Postgres. Terminal transitions
// are guarded by `status='active'` in the WHERE clause, so two racing
// requests against one session resolve to exactly one winner at the database
// level without explicit locking.
type SessionRepository struct {
	pool *pgxpool.Pool
}

var _ app.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.QuizSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (id, user_id, start_time, time_limit_minutes, status, score, total_questions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.UserID, clock.EnsureUTC(session.StartTime),
		session.TimeLimitMinutes, session.Status, session.Score, session.TotalQuestions,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.QuizSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, start_time, end_time, time_limit_minutes, status, score, total_questions
		FROM quiz_sessions WHERE id=$1`, id)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return session, err
}

func (r *SessionRepository) GetActive(ctx context.Context, userID int64) (*domain.QuizSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, start_time, end_time, time_limit_minutes, status, score, total_questions
		FROM quiz_sessions
		WHERE user_id=$1 AND status='active'
		ORDER BY start_time DESC LIMIT 1`, userID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoActiveSession
	}
	return session, err
}

func (r *SessionRepository) Finish(ctx context.Context, id string, status domain.Status, endTime time.Time, score, total int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quiz_sessions
		SET status=$2, end_time=$3, score=$4, total_questions=$5
		WHERE id=$1 AND status='active'`,
		id, status, clock.EnsureUTC(endTime), score, total,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotActive
	}
	return nil
}

func (r *SessionRepository) Extend(ctx context.Context, id string, additionalMinutes int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quiz_sessions
		SET time_limit_minutes = time_limit_minutes + $2
		WHERE id=$1 AND status='active'`,
		id, additionalMinutes,
	)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotActive
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.QuizSession, error) {
	var session domain.QuizSession
	var endTime sql.NullTime
	err := row.Scan(
		&session.ID, &session.UserID, &session.StartTime, &endTime,
		&session.TimeLimitMinutes, &session.Status, &session.Score, &session.TotalQuestions,
	)
	if err != nil {
		return nil, err
	}
	session.StartTime = clock.EnsureUTC(session.StartTime)
	if endTime.Valid {
		session.EndTime = clock.EnsureUTC(endTime.Time)
	}
	return &session, nil
}
