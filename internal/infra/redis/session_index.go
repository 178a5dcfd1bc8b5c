package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/app"
)

// SessionIndex marks a user's active session in Redis with a TTL tied to the
// session's remaining time. Notes:
//   - It is a best-effort liveness marker: the session repository stays
//     authoritative, and expiry is still detected lazily on read.
//   - The TTL means a stale marker for an expired-but-unreconciled session
//     disappears on its own.
type SessionIndex struct {
	client *redis.Client
}

var _ app.ActiveSessionIndex = (*SessionIndex)(nil)

func NewSessionIndex(client *redis.Client) *SessionIndex {
	return &SessionIndex{client: client}
}

func (i *SessionIndex) Set(ctx context.Context, userID int64, sessionID string, ttl time.Duration) {
	if ttl <= 0 {
		i.Clear(ctx, userID)
		return
	}
	_ = i.client.Set(ctx, i.key(userID), sessionID, ttl).Err()
}

// Get returns the indexed session ID for a user, if the marker is still live.
func (i *SessionIndex) Get(ctx context.Context, userID int64) (string, bool) {
	val, err := i.client.Get(ctx, i.key(userID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (i *SessionIndex) Clear(ctx context.Context, userID int64) {
	_ = i.client.Del(ctx, i.key(userID)).Err()
}

func (i *SessionIndex) key(userID int64) string {
	return "quiz:session:active:" + strconv.FormatInt(userID, 10)
}
