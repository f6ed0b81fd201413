package store

import "time"

// Lifecycle stages of a quiz session. Transitions between them are owned
// by the flow controller; session mutation methods assert the stage they
// require before writing.
const (
	StageInput        = "input"
	StageQuestions    = "questions"
	StageAnswers      = "answers"
	StageExplanations = "explanations"
	StageFollowup     = "followup"
)

// QuizSession is the unit of user interaction: one topic, one batch of
// generated questions, and the follow-up conversation that comes after.
// Mutated only through stage-specific manager methods.
type QuizSession struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id,omitempty"`
	Topic         string             `json:"topic"`
	QuestionCount int                `json:"question_count"`
	Questions     []Question         `json:"questions"`
	CurrentStage  string             `json:"current_stage"`
	UserAnswers   map[string]string  `json:"user_answers"` // question id -> chosen label
	Followups     []FollowupExchange `json:"followups"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

// Expired reports whether the session's lifetime has passed at t.
func (s *QuizSession) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// FollowupExchange records one question/answer turn after the quiz has
// been explained. Append-only, ordered by creation.
type FollowupExchange struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
