package memory

import (
	"context"
	"time"

	"ai-examprep-be/pkg/quiz/session"
	"ai-examprep-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps quiz sessions in process memory. go-cache evicts
// entries on its own schedule; sessions still carry ExpiresAt so the manager
// applies the same expiry rules against every backing store.
type SessionRepository struct {
	cache *cache.Cache
}

var _ session.Store = &SessionRepository{}

func NewSessionRepository(ttl, sweepInterval time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, sweepInterval),
	}
}

func (r *SessionRepository) Save(ctx context.Context, s *store.QuizSession) error {
	ttl := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() {
		ttl = cache.DefaultExpiration
	}
	c := *s
	r.cache.Set(s.ID, &c, ttl)
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*store.QuizSession, error) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, session.ErrNotFound
	}
	s, ok := x.(*store.QuizSession)
	if !ok {
		return nil, session.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

// DeleteExpired reaps sessions whose own ExpiresAt has passed, counting what
// it removed. go-cache's background janitor may have beaten it to some of
// them, which is fine.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for id, item := range r.cache.Items() {
		s, ok := item.Object.(*store.QuizSession)
		if !ok {
			continue
		}
		if s.Expired(now) {
			r.cache.Delete(id)
			removed++
		}
	}
	return removed, nil
}
