package store

import "time"

// Option labels for multiple-choice questions.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// OptionLabels lists the four labels in display order.
var OptionLabels = []string{OptionA, OptionB, OptionC, OptionD}

// Question is a generated exam-style item: four labeled options, one
// correct label, and an explanation that may be filled in a later stage.
type Question struct {
	ID            string            `json:"id"`
	Topic         string            `json:"topic"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"` // keyed by "A".."D"
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
	Sources       []string          `json:"sources"`
	Difficulty    string            `json:"difficulty"`
	CreatedAt     time.Time         `json:"created_at"`
}
