package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-examprep-be/pkg/store"
)

// fakeStore copies sessions on save and load, the way a serializing
// store would.
type fakeStore struct {
	sessions map[string]*store.QuizSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*store.QuizSession{}}
}

func (f *fakeStore) Save(ctx context.Context, s *store.QuizSession) error {
	c := *s
	f.sessions[s.ID] = &c
	return nil
}

func (f *fakeStore) Load(ctx context.Context, id string) (*store.QuizSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func questionBatch() []store.Question {
	return []store.Question{
		{
			ID:       "q1",
			Topic:    "bonds",
			Question: "What is a coupon?",
			Options: map[string]string{
				"A": "Interest payment", "B": "Redemption value", "C": "Issue price", "D": "Credit rating",
			},
			CorrectAnswer: "A",
			Difficulty:    "medium",
		},
	}
}

func newTestManager() (*Manager, *fakeStore, *time.Time) {
	fs := newFakeStore()
	m := NewManager(fs, 2*time.Hour)
	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	return m, fs, &current
}

func TestCreateSession(t *testing.T) {
	m, fs, _ := newTestManager()

	s, err := m.Create(context.Background(), "bonds", 3, "user-7")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.ID, "session_"), "id %q", s.ID)
	assert.Equal(t, store.StageInput, s.CurrentStage)
	assert.Equal(t, "bonds", s.Topic)
	assert.Equal(t, 3, s.QuestionCount)
	assert.Equal(t, "user-7", s.UserID)
	assert.Equal(t, s.CreatedAt.Add(2*time.Hour), s.ExpiresAt)
	assert.Contains(t, fs.sessions, s.ID)
}

func TestCreateSessionRequiresTopicAndCount(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.Create(context.Background(), "  ", 3, "")
	assert.Error(t, err)

	_, err = m.Create(context.Background(), "bonds", 0, "")
	assert.Error(t, err)
}

func TestGetReclaimsExpiredSession(t *testing.T) {
	m, fs, current := newTestManager()

	s, err := m.Create(context.Background(), "bonds", 1, "")
	require.NoError(t, err)

	*current = current.Add(3 * time.Hour)

	_, err = m.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, fs.sessions, s.ID, "expired session is deleted on read")
}

func TestSetQuestionsAdvancesStage(t *testing.T) {
	m, _, _ := newTestManager()

	s, err := m.Create(context.Background(), "bonds", 1, "")
	require.NoError(t, err)

	updated, err := m.SetQuestions(context.Background(), s.ID, questionBatch())
	require.NoError(t, err)
	assert.Equal(t, store.StageQuestions, updated.CurrentStage)
	require.Len(t, updated.Questions, 1)

	_, err = m.SetQuestions(context.Background(), s.ID, questionBatch())
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, store.StageQuestions, stageErr.Current)
	assert.Equal(t, store.StageInput, stageErr.Required)
}

func TestSetUserAnswersValidatesEntries(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 1, "")
	_, err := m.SetQuestions(context.Background(), s.ID, questionBatch())
	require.NoError(t, err)

	_, err = m.SetUserAnswers(context.Background(), s.ID, map[string]string{"ghost": "A"})
	assert.ErrorContains(t, err, "unknown question")

	_, err = m.SetUserAnswers(context.Background(), s.ID, map[string]string{"q1": "E"})
	assert.ErrorContains(t, err, "invalid label")

	updated, err := m.SetUserAnswers(context.Background(), s.ID, map[string]string{"q1": "b"})
	require.NoError(t, err)
	assert.Equal(t, store.StageAnswers, updated.CurrentStage)
	assert.Equal(t, "B", updated.UserAnswers["q1"])
}

func TestShowExplanationsWritesIntoQuestions(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 1, "")
	_, err := m.SetQuestions(context.Background(), s.ID, questionBatch())
	require.NoError(t, err)
	_, err = m.SetUserAnswers(context.Background(), s.ID, map[string]string{"q1": "A"})
	require.NoError(t, err)

	updated, err := m.ShowExplanations(context.Background(), s.ID, map[string]string{
		"q1": "The coupon is the periodic interest payment.",
	})
	require.NoError(t, err)
	assert.Equal(t, store.StageExplanations, updated.CurrentStage)
	assert.Equal(t, "The coupon is the periodic interest payment.", updated.Questions[0].Explanation)
}

func TestAddFollowupSelfLoop(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 1, "")
	_, err := m.SetQuestions(context.Background(), s.ID, questionBatch())
	require.NoError(t, err)
	_, err = m.SetUserAnswers(context.Background(), s.ID, map[string]string{"q1": "A"})
	require.NoError(t, err)
	_, err = m.ShowExplanations(context.Background(), s.ID, nil)
	require.NoError(t, err)

	first, err := m.AddFollowup(context.Background(), s.ID, "What about zero-coupon bonds?", "They pay no periodic interest.")
	require.NoError(t, err)
	assert.Equal(t, store.StageFollowup, first.CurrentStage)

	second, err := m.AddFollowup(context.Background(), s.ID, "And their price?", "They trade at a discount to par.")
	require.NoError(t, err)
	assert.Equal(t, store.StageFollowup, second.CurrentStage)
	require.Len(t, second.Followups, 2)
	assert.Equal(t, "What about zero-coupon bonds?", second.Followups[0].Question)
}

func TestAddFollowupRequiresExplanations(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 1, "")
	_, err := m.AddFollowup(context.Background(), s.ID, "Too early?", "Yes.")
	var stageErr *StageError
	assert.ErrorAs(t, err, &stageErr)
}

func TestRestartCreatesFreshSessionAndDeletesOld(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 2, "user-9")
	_, err := m.SetQuestions(context.Background(), s.ID, questionBatch())
	require.NoError(t, err)

	fresh, err := m.Restart(context.Background(), s.ID)
	require.NoError(t, err)

	assert.NotEqual(t, s.ID, fresh.ID)
	assert.Equal(t, store.StageInput, fresh.CurrentStage)
	assert.Equal(t, "bonds", fresh.Topic)
	assert.Equal(t, 2, fresh.QuestionCount)
	assert.Equal(t, "user-9", fresh.UserID)
	assert.Empty(t, fresh.Questions)

	_, err = m.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestartFromInputRejected(t *testing.T) {
	m, _, _ := newTestManager()

	s, _ := m.Create(context.Background(), "bonds", 1, "")
	_, err := m.Restart(context.Background(), s.ID)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, store.StageInput, stageErr.Current)
}

func TestCleanupExpired(t *testing.T) {
	m, fs, current := newTestManager()

	live, err := m.Create(context.Background(), "bonds", 1, "")
	require.NoError(t, err)
	stale, err := m.Create(context.Background(), "stocks", 1, "")
	require.NoError(t, err)

	fs.sessions[stale.ID].ExpiresAt = current.Add(-time.Minute)

	n, err := m.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.Get(context.Background(), live.ID)
	assert.NoError(t, err)
	_, err = m.Get(context.Background(), stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
