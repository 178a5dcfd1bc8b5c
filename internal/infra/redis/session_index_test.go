package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionIndexSetGetClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSessionIndex(client)
	ctx := context.Background()

	index.Set(ctx, 7, "session-1", time.Minute)
	if !mr.Exists("quiz:session:active:7") {
		t.Fatalf("expected index key to be set")
	}
	if got, ok := index.Get(ctx, 7); !ok || got != "session-1" {
		t.Fatalf("expected session-1, got %q ok=%v", got, ok)
	}

	index.Clear(ctx, 7)
	if mr.Exists("quiz:session:active:7") {
		t.Fatalf("expected index key removed")
	}
}

func TestSessionIndexMarkerExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSessionIndex(client)
	ctx := context.Background()

	index.Set(ctx, 7, "session-1", 30*time.Second)
	mr.FastForward(31 * time.Second)

	if _, ok := index.Get(ctx, 7); ok {
		t.Fatalf("expected marker to expire with the session TTL")
	}
}

func TestSessionIndexZeroTTLClears(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSessionIndex(client)
	ctx := context.Background()

	index.Set(ctx, 7, "session-1", time.Minute)
	index.Set(ctx, 7, "session-1", 0)
	if mr.Exists("quiz:session:active:7") {
		t.Fatalf("expected zero TTL to clear the marker")
	}
}
