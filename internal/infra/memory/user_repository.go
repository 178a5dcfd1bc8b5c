package memory

import (
	"context"
	"sync"

	"timed-quiz-service/internal/clock"
	"timed-quiz-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*domain.User)}
}

func (r *UserRepository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// ResultRepository keeps the latest score per user in memory.
type ResultRepository struct {
	mu      sync.Mutex
	nextID  int64
	results map[int64]*domain.QuizResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{results: make(map[int64]*domain.QuizResult)}
}

func (r *ResultRepository) UpsertResult(_ context.Context, userID int64, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := clock.Now()
	if result, ok := r.results[userID]; ok {
		result.Score = score
		result.UpdatedAt = now
		return nil
	}
	r.nextID++
	r.results[userID] = &domain.QuizResult{
		ID:        r.nextID,
		UserID:    userID,
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// GetResult returns the stored result for a user, if any.
func (r *ResultRepository) GetResult(_ context.Context, userID int64) (*domain.QuizResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[userID]
	if !ok {
		return nil, false
	}
	copied := *result
	return &copied, true
}
