package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/clock"
	"timed-quiz-service/internal/domain"
)

// UserRepository persists users in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ app.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		user.FirstName, user.LastName, user.Username, user.PasswordHash, clock.EnsureUTC(user.CreatedAt),
	).Scan(&user.ID)
	if err != nil {
		// unique_violation on the username column
		if strings.Contains(err.Error(), "23505") {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, username, password_hash, created_at
		FROM users WHERE username=$1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, username, password_hash, created_at
		FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = clock.EnsureUTC(user.CreatedAt)
	return &user, nil
}

// ResultRepository upserts the per-user score row.
type ResultRepository struct {
	pool *pgxpool.Pool
}

var _ app.ResultRepository = (*ResultRepository)(nil)

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) UpsertResult(ctx context.Context, userID int64, score int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_results (user_id, quiz_score, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET quiz_score=EXCLUDED.quiz_score, updated_at=now()`,
		userID, score,
	)
	if err != nil {
		return fmt.Errorf("upsert quiz result: %w", err)
	}
	return nil
}
