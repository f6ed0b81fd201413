package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-examprep-be/pkg/store"
)

// Manager owns the session lifecycle. Every forward transition has one
// mutation method that asserts the required prior stage, writes the new
// data, advances the stage and persists, in that order. Sessions are
// mutated under a single-writer assumption per id; there is no locking.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Manager) sessionID() string {
	return fmt.Sprintf("session_%d_%s", m.now().UnixMilli(), uuid.NewString()[:8])
}

// Create opens a new session in the input stage.
func (m *Manager) Create(ctx context.Context, topic string, questionCount int, userID string) (*store.QuizSession, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if questionCount <= 0 {
		return nil, fmt.Errorf("question count must be positive")
	}

	now := m.now()
	s := &store.QuizSession{
		ID:            m.sessionID(),
		UserID:        userID,
		Topic:         topic,
		QuestionCount: questionCount,
		Questions:     []store.Question{},
		CurrentStage:  store.StageInput,
		UserAnswers:   map[string]string{},
		Followups:     []store.FollowupExchange{},
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Get loads a live session. An expired session is deleted on read and
// reported as not found.
func (m *Manager) Get(ctx context.Context, id string) (*store.QuizSession, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return s, nil
}

// SetQuestions stores the generated questions and moves the session
// from input to questions.
func (m *Manager) SetQuestions(ctx context.Context, id string, questions []store.Question) (*store.QuizSession, error) {
	s, err := m.require(ctx, id, store.StageInput)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to store")
	}

	s.Questions = questions
	s.CurrentStage = store.StageQuestions
	return m.persist(ctx, s)
}

// SetUserAnswers stores the user's chosen labels and moves the session
// from questions to answers. Answers may be partial but every entry
// must reference a known question and a valid label.
func (m *Manager) SetUserAnswers(ctx context.Context, id string, answers map[string]string) (*store.QuizSession, error) {
	s, err := m.require(ctx, id, store.StageQuestions)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		return nil, fmt.Errorf("user answers are required")
	}

	known := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		known[q.ID] = true
	}

	cleaned := make(map[string]string, len(answers))
	for questionID, label := range answers {
		if !known[questionID] {
			return nil, fmt.Errorf("answer references unknown question %q", questionID)
		}
		normalized := strings.ToUpper(strings.TrimSpace(label))
		if !validOptionLabel(normalized) {
			return nil, fmt.Errorf("answer for question %q has invalid label %q", questionID, label)
		}
		cleaned[questionID] = normalized
	}

	s.UserAnswers = cleaned
	s.CurrentStage = store.StageAnswers
	return m.persist(ctx, s)
}

// ShowExplanations attaches generated explanations to their questions
// and moves the session from answers to explanations. A nil map only
// advances the stage.
func (m *Manager) ShowExplanations(ctx context.Context, id string, explanations map[string]string) (*store.QuizSession, error) {
	s, err := m.require(ctx, id, store.StageAnswers)
	if err != nil {
		return nil, err
	}

	for i := range s.Questions {
		if text, ok := explanations[s.Questions[i].ID]; ok {
			s.Questions[i].Explanation = text
		}
	}

	s.CurrentStage = store.StageExplanations
	return m.persist(ctx, s)
}

// AddFollowup appends one question/answer exchange. Valid from the
// explanations stage and from followup itself.
func (m *Manager) AddFollowup(ctx context.Context, id, question, answer string) (*store.QuizSession, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CurrentStage != store.StageExplanations && s.CurrentStage != store.StageFollowup {
		return nil, &StageError{SessionID: id, Current: s.CurrentStage, Required: store.StageExplanations}
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("followup question and answer are required")
	}

	s.Followups = append(s.Followups, store.FollowupExchange{
		Question:  question,
		Answer:    answer,
		CreatedAt: m.now(),
	})
	s.CurrentStage = store.StageFollowup
	return m.persist(ctx, s)
}

// Restart replaces a session past the input stage with a brand-new one
// preserving topic, question count and user. The old session is deleted
// once the new one is saved.
func (m *Manager) Restart(ctx context.Context, id string) (*store.QuizSession, error) {
	old, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.CurrentStage == store.StageInput {
		return nil, &StageError{SessionID: id, Current: old.CurrentStage, Required: "any stage past input"}
	}

	fresh, err := m.Create(ctx, old.Topic, old.QuestionCount, old.UserID)
	if err != nil {
		return nil, err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete replaced session: %w", err)
	}
	return fresh, nil
}

// Delete removes a session unconditionally.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// CleanupExpired proactively deletes every expired session and returns
// how many were reclaimed.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

func (m *Manager) require(ctx context.Context, id, stage string) (*store.QuizSession, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CurrentStage != stage {
		return nil, &StageError{SessionID: id, Current: s.CurrentStage, Required: stage}
	}
	return s, nil
}

func (m *Manager) persist(ctx context.Context, s *store.QuizSession) (*store.QuizSession, error) {
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func validOptionLabel(label string) bool {
	for _, l := range store.OptionLabels {
		if label == l {
			return true
		}
	}
	return false
}
