package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	session := domain.NewQuizSession("s1", 1, 30, start)
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got.ID != "s1" {
		t.Fatalf("expected s1, got %s", got.ID)
	}

	// Repository hands out copies; mutating them must not leak back.
	got.Score = 99
	fresh, _ := repo.Get(ctx, "s1")
	if fresh.Score != 0 {
		t.Fatalf("stored session mutated through returned copy")
	}

	if _, err := repo.GetActive(ctx, 2); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestFinishIsConditionalOnActive(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	if err := repo.Create(ctx, domain.NewQuizSession("s1", 1, 30, start)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Finish(ctx, "s1", domain.StatusCompleted, end, 7, 10); err != nil {
		t.Fatalf("first finish: %v", err)
	}

	// The losing side of a race observes the terminal state and must not
	// overwrite the recorded score.
	err := repo.Finish(ctx, "s1", domain.StatusTimedOut, end, 0, 10)
	if !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}

	got, _ := repo.Get(ctx, "s1")
	if got.Status != domain.StatusCompleted || got.Score != 7 {
		t.Fatalf("recorded result altered by rejected transition: %+v", got)
	}

	if _, err := repo.GetActive(ctx, 1); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("finished session still reported active")
	}
}

func TestExtendRequiresActive(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, domain.NewQuizSession("s1", 1, 30, start)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Extend(ctx, "s1", 5); err != nil {
		t.Fatalf("extend: %v", err)
	}
	got, _ := repo.Get(ctx, "s1")
	if got.TimeLimitMinutes != 35 {
		t.Fatalf("expected limit 35, got %d", got.TimeLimitMinutes)
	}

	_ = repo.Finish(ctx, "s1", domain.StatusAbandoned, start, 0, 0)
	if err := repo.Extend(ctx, "s1", 5); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}
