package dto

import "time"

type StartQuizRequest struct {
	Topic         string `json:"topic" validate:"required,min=2"`
	QuestionCount int    `json:"question_count" validate:"required,min=1,max=20"`
	UserId        string `json:"user_id"`
}

type StartQuizResponse struct {
	SessionId       string   `json:"session_id"`
	Stage           string   `json:"stage"`
	Topic           string   `json:"topic"`
	NormalizedTopic string   `json:"normalized_topic"`
	MatchedSubject  string   `json:"matched_subject,omitempty"`
	Method          string   `json:"method"`
	Confidence      float64  `json:"confidence"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

type GenerateQuestionsRequest struct {
	SessionId  string `json:"session_id" validate:"required"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// QuestionDTO hides the correct answer and explanation; those surface in
// the reveal and explanation stages.
type QuestionDTO struct {
	Id         string            `json:"id"`
	Question   string            `json:"question"`
	Options    map[string]string `json:"options"`
	Difficulty string            `json:"difficulty"`
}

type GenerateQuestionsResponse struct {
	SessionId     string        `json:"session_id"`
	Stage         string        `json:"stage"`
	Questions     []QuestionDTO `json:"questions"`
	ContextSize   int           `json:"context_size"`
	SourcesUsed   []string      `json:"sources_used,omitempty"`
	DegradedMode  bool          `json:"degraded_mode"`
	RetrievedDocs int           `json:"retrieved_docs"`
}

type SubmitAnswersRequest struct {
	SessionId string            `json:"session_id" validate:"required"`
	Answers   map[string]string `json:"answers" validate:"required,min=1"`
}

type AnswerResultDTO struct {
	QuestionId    string `json:"question_id"`
	UserAnswer    string `json:"user_answer,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
}

type RevealAnswersResponse struct {
	SessionId string            `json:"session_id"`
	Stage     string            `json:"stage"`
	Results   []AnswerResultDTO `json:"results"`
	Score     int               `json:"score"`
	Total     int               `json:"total"`
}

type ExplanationDTO struct {
	QuestionId    string  `json:"question_id"`
	Question      string  `json:"question"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
	Confidence    float64 `json:"confidence"`
}

type ShowExplanationsResponse struct {
	SessionId    string           `json:"session_id"`
	Stage        string           `json:"stage"`
	Explanations []ExplanationDTO `json:"explanations"`
}

type FollowupRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Question  string `json:"question" validate:"required,min=3"`
}

type FollowupResponse struct {
	SessionId string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	AskedAt   time.Time `json:"asked_at"`
}

type RestartQuizResponse struct {
	OldSessionId  string `json:"old_session_id"`
	SessionId     string `json:"session_id"`
	Stage         string `json:"stage"`
	Topic         string `json:"topic"`
	QuestionCount int    `json:"question_count"`
}
