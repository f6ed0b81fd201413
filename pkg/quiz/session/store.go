package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-examprep-be/pkg/store"
)

// ErrNotFound is returned when a session does not exist or has already
// been reclaimed.
var ErrNotFound = errors.New("session not found")

// Store persists sessions behind the manager. Implementations must
// return ErrNotFound for absent ids; expiry is the manager's concern,
// though a store may additionally evict on its own.
type Store interface {
	Save(ctx context.Context, session *store.QuizSession) error
	Load(ctx context.Context, id string) (*store.QuizSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// StageError reports a mutation attempted against the wrong lifecycle
// stage.
type StageError struct {
	SessionID string
	Current   string
	Required  string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("session %s is in stage %q, requires %q", e.SessionID, e.Current, e.Required)
}
