package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-examprep-be/pkg/quiz/session"
	"ai-examprep-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "quiz_session:"

// SessionRepository persists quiz sessions as JSON values in Redis, with the
// key TTL mirroring the session's ExpiresAt. Redis reclaims expired keys by
// itself, so DeleteExpired mostly exists to honor the Store contract.
type SessionRepository struct {
	client *redis.Client
}

var _ session.Store = &SessionRepository{}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Save(ctx context.Context, s *store.QuizSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	ttl := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() {
		ttl = 2 * time.Hour
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, keyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*store.QuizSession, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var s store.QuizSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue // raced with Redis' own expiry
		}
		var s store.QuizSession
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		if s.Expired(now) {
			if err := r.client.Del(ctx, key).Err(); err == nil {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions: %w", err)
	}
	return removed, nil
}
