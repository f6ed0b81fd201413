package generate

import (
	"fmt"
	"strings"

	"ai-examprep-be/pkg/store"
)

type questionItem struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Difficulty    string            `json:"difficulty"`
}

type answerPayload struct {
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Distractors   []string `json:"distractors"`
}

type explanationPayload struct {
	Explanation      string   `json:"explanation"`
	KeyPoints        []string `json:"key_points"`
	SourceReferences []string `json:"source_references"`
}

// extractJSON strips markdown fences and any prose surrounding the
// outermost JSON value. Models wrap their output more often than not.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	closer := byte(']')
	if s[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return s
	}
	return s[start : end+1]
}

func validateQuestionItems(items []questionItem, want int) error {
	if len(items) != want {
		return &ValidationError{Reason: fmt.Sprintf("expected %d questions, got %d", want, len(items))}
	}

	for i, item := range items {
		if strings.TrimSpace(item.Question) == "" {
			return &ValidationError{Reason: fmt.Sprintf("question %d is empty", i+1)}
		}
		if len(item.Options) != len(store.OptionLabels) {
			return &ValidationError{Reason: fmt.Sprintf("question %d has %d options, want %d", i+1, len(item.Options), len(store.OptionLabels))}
		}

		seen := make(map[string]bool, len(store.OptionLabels))
		for _, label := range store.OptionLabels {
			text, ok := option(item.Options, label)
			if !ok || strings.TrimSpace(text) == "" {
				return &ValidationError{Reason: fmt.Sprintf("question %d is missing option %s", i+1, label)}
			}
			normalized := strings.ToLower(strings.TrimSpace(text))
			if seen[normalized] {
				return &ValidationError{Reason: fmt.Sprintf("question %d has duplicate option text %q", i+1, text)}
			}
			seen[normalized] = true
		}

		if !validLabel(item.CorrectAnswer) {
			return &ValidationError{Reason: fmt.Sprintf("question %d has invalid correct label %q", i+1, item.CorrectAnswer)}
		}
	}
	return nil
}

// option looks up a label tolerating lowercase keys in the response.
func option(options map[string]string, label string) (string, bool) {
	if text, ok := options[label]; ok {
		return text, true
	}
	text, ok := options[strings.ToLower(label)]
	return text, ok
}

func validLabel(label string) bool {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, l := range store.OptionLabels {
		if label == l {
			return true
		}
	}
	return false
}

func validateAnswerPayload(p answerPayload, wantDistractors int) error {
	correct := strings.TrimSpace(p.CorrectAnswer)
	if correct == "" {
		return &ValidationError{Reason: "correct answer is empty"}
	}
	if strings.TrimSpace(p.Explanation) == "" {
		return &ValidationError{Reason: "explanation is empty"}
	}
	if len(p.Distractors) != wantDistractors {
		return &ValidationError{Reason: fmt.Sprintf("expected %d distractors, got %d", wantDistractors, len(p.Distractors))}
	}

	correctKey := strings.ToLower(correct)
	seen := make(map[string]bool, len(p.Distractors))
	for i, d := range p.Distractors {
		key := strings.ToLower(strings.TrimSpace(d))
		if key == "" {
			return &ValidationError{Reason: fmt.Sprintf("distractor %d is empty", i+1)}
		}
		if key == correctKey {
			return &ValidationError{Reason: fmt.Sprintf("distractor %d equals the correct answer", i+1)}
		}
		if seen[key] {
			return &ValidationError{Reason: fmt.Sprintf("distractor %d duplicates another distractor", i+1)}
		}
		seen[key] = true
	}
	return nil
}
