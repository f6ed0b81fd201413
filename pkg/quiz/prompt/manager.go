package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template ids. Each id pairs with exactly one context struct type;
// Render rejects any other payload before touching the template.
const (
	TemplateQuestions   = "generate_questions"
	TemplateAnswer      = "generate_answer"
	TemplateExplanation = "generate_explanation"
	TemplateFollowup    = "followup"
)

// QuestionsContext feeds TemplateQuestions.
type QuestionsContext struct {
	Topic      string
	Count      int
	Difficulty string
	Context    string
}

// AnswerContext feeds TemplateAnswer.
type AnswerContext struct {
	Question        string
	Context         string
	DistractorCount int
}

// ExplanationContext feeds TemplateExplanation.
type ExplanationContext struct {
	Question      string
	CorrectAnswer string
	Topic         string
	Context       string
}

// FollowupContext feeds TemplateFollowup. The rendered text frames the
// system turn of a chat; the student's questions and earlier exchanges
// travel as chat history, not through the template.
type FollowupContext struct {
	Topic   string
	Context string
}

const questionsText = `<task>
You are an exam-preparation tutor writing practice questions for securities industry qualification exams.
</task>

<study_material>
{{if .Context}}{{.Context}}{{else}}No study material was retrieved. Write the questions from general knowledge of the topic.{{end}}
</study_material>

<instructions>
Write exactly {{.Count}} multiple-choice questions about "{{.Topic}}" at {{.Difficulty}} difficulty.

Rules:
1. Base every question on the study material whenever it covers the topic
2. Each question has exactly four answer options labeled A, B, C and D
3. All four options must be distinct and plausible
4. Exactly one option is correct
5. Do not reuse the same fact across questions
</instructions>

Respond with a JSON array only, no prose before or after. Each element has this shape:
{"question": "...", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}, "correct_answer": "A", "difficulty": "{{.Difficulty}}"}`

const answerText = `<task>
You are an exam-preparation tutor writing the answer key for a practice question.
</task>

<study_material>
{{if .Context}}{{.Context}}{{else}}No study material was retrieved. Answer from general knowledge.{{end}}
</study_material>

<question>
{{.Question}}
</question>

<instructions>
1. State the correct answer
2. Explain briefly why it is correct
3. Provide exactly {{.DistractorCount}} plausible but wrong answers
4. Every wrong answer must differ from the correct answer and from the others
</instructions>

Respond with a JSON object only, no prose before or after:
{"correct_answer": "...", "explanation": "...", "distractors": ["...", "..."]}`

const explanationText = `<task>
You are an exam-preparation tutor explaining an answer to a student studying {{.Topic}}.
</task>

<study_material>
{{if .Context}}{{.Context}}{{else}}No study material was retrieved. Explain from general knowledge.{{end}}
</study_material>

<question>
{{.Question}}
</question>

<correct_answer>
{{.CorrectAnswer}}
</correct_answer>

<instructions>
1. Explain step by step why the correct answer is right, using reasoning words such as "because" and "therefore"
2. Use the key domain terms a student must know for this topic
3. List the key points to remember
4. Name the sources from the study material you relied on, if any
</instructions>

Respond with a JSON object only, no prose before or after:
{"explanation": "...", "key_points": ["..."], "source_references": ["..."]}`

const followupText = `<task>
You are an exam-preparation tutor in an ongoing study session about {{.Topic}}.
</task>

<study_material>
{{if .Context}}{{.Context}}{{else}}No study material was retrieved. Answer from general knowledge.{{end}}
</study_material>

Answer the student's questions concisely, based on the study material.`

// Manager renders prompts from a fixed set of templates. Context
// structs are validated ahead of rendering so a missing field fails
// loudly instead of producing a half-filled prompt.
type Manager struct {
	templates map[string]*template.Template
}

func NewManager() *Manager {
	parse := func(id, text string) *template.Template {
		return template.Must(template.New(id).Parse(text))
	}
	return &Manager{
		templates: map[string]*template.Template{
			TemplateQuestions:   parse(TemplateQuestions, questionsText),
			TemplateAnswer:      parse(TemplateAnswer, answerText),
			TemplateExplanation: parse(TemplateExplanation, explanationText),
			TemplateFollowup:    parse(TemplateFollowup, followupText),
		},
	}
}

// Render produces the prompt for the given template id in a single
// injection pass.
func (m *Manager) Render(id string, data interface{}) (string, error) {
	tmpl, ok := m.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", id)
	}
	if err := validate(id, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", id, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", id, err)
	}
	return buf.String(), nil
}

func validate(id string, data interface{}) error {
	switch id {
	case TemplateQuestions:
		ctx, ok := data.(QuestionsContext)
		if !ok {
			return fmt.Errorf("expected QuestionsContext, got %T", data)
		}
		if ctx.Topic == "" {
			return fmt.Errorf("topic is required")
		}
		if ctx.Count <= 0 {
			return fmt.Errorf("count must be positive")
		}
		if ctx.Difficulty == "" {
			return fmt.Errorf("difficulty is required")
		}
	case TemplateAnswer:
		ctx, ok := data.(AnswerContext)
		if !ok {
			return fmt.Errorf("expected AnswerContext, got %T", data)
		}
		if ctx.Question == "" {
			return fmt.Errorf("question is required")
		}
		if ctx.DistractorCount <= 0 {
			return fmt.Errorf("distractor count must be positive")
		}
	case TemplateExplanation:
		ctx, ok := data.(ExplanationContext)
		if !ok {
			return fmt.Errorf("expected ExplanationContext, got %T", data)
		}
		if ctx.Question == "" {
			return fmt.Errorf("question is required")
		}
		if ctx.CorrectAnswer == "" {
			return fmt.Errorf("correct answer is required")
		}
		if ctx.Topic == "" {
			return fmt.Errorf("topic is required")
		}
	case TemplateFollowup:
		ctx, ok := data.(FollowupContext)
		if !ok {
			return fmt.Errorf("expected FollowupContext, got %T", data)
		}
		if ctx.Topic == "" {
			return fmt.Errorf("topic is required")
		}
	}
	return nil
}
