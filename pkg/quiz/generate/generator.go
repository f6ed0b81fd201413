package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/llm"
	"ai-examprep-be/pkg/quiz/prompt"
	"ai-examprep-be/pkg/store"
)

// AnswerResult is the answer key produced for one question.
type AnswerResult struct {
	CorrectAnswer string   `json:"correct_answer"`
	Distractors   []string `json:"distractors"`
	Explanation   string   `json:"explanation"`
	Confidence    float64  `json:"confidence"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ExplanationResult is a scored explanation with its supporting points.
type ExplanationResult struct {
	Explanation      string   `json:"explanation"`
	KeyPoints        []string `json:"key_points"`
	SourceReferences []string `json:"source_references"`
	Confidence       float64  `json:"confidence"`
}

// Generator runs the render, call, parse, validate pipeline for every
// generation stage. Each stage retries with identical inputs on both
// transport failures and validation failures, within one shared attempt
// budget.
type Generator struct {
	provider llm.LLMProvider
	prompts  *prompt.Manager
	cfg      config.GenerationConfig
}

func NewGenerator(provider llm.LLMProvider, prompts *prompt.Manager, cfg config.GenerationConfig) *Generator {
	return &Generator{
		provider: provider,
		prompts:  prompts,
		cfg:      cfg,
	}
}

// GenerateQuestions produces exactly count validated questions.
func (g *Generator) GenerateQuestions(ctx context.Context, topicName string, count int, difficulty, contextText string) ([]store.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive")
	}
	if difficulty == "" {
		difficulty = constant.DifficultyMedium
	}
	if !validDifficulty(difficulty) {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}

	promptText, err := g.prompts.Render(prompt.TemplateQuestions, prompt.QuestionsContext{
		Topic:      topicName,
		Count:      count,
		Difficulty: difficulty,
		Context:    contextText,
	})
	if err != nil {
		return nil, err
	}

	var questions []store.Question
	err = retry("generate questions", g.cfg.MaxAttempts, func(int) error {
		raw, err := g.call(ctx, promptText)
		if err != nil {
			return err
		}

		var items []questionItem
		if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("response is not a question array: %v", err)}
		}
		if err := validateQuestionItems(items, count); err != nil {
			return err
		}

		questions = buildQuestions(items, topicName, difficulty)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GenerateAnswer produces the answer key for a question: the correct
// answer, the configured number of distinct distractors and a short
// explanation. Distractors too close to the correct answer lower the
// confidence instead of failing the attempt.
func (g *Generator) GenerateAnswer(ctx context.Context, questionText, contextText string) (*AnswerResult, error) {
	if strings.TrimSpace(questionText) == "" {
		return nil, fmt.Errorf("question text is empty")
	}

	promptText, err := g.prompts.Render(prompt.TemplateAnswer, prompt.AnswerContext{
		Question:        questionText,
		Context:         contextText,
		DistractorCount: g.cfg.DistractorCount,
	})
	if err != nil {
		return nil, err
	}

	var result *AnswerResult
	err = retry("generate answer", g.cfg.MaxAttempts, func(int) error {
		raw, err := g.call(ctx, promptText)
		if err != nil {
			return err
		}

		var payload answerPayload
		if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("response is not an answer object: %v", err)}
		}
		if err := validateAnswerPayload(payload, g.cfg.DistractorCount); err != nil {
			return err
		}

		result = g.scoreAnswer(payload)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) scoreAnswer(payload answerPayload) *AnswerResult {
	result := &AnswerResult{
		CorrectAnswer: strings.TrimSpace(payload.CorrectAnswer),
		Distractors:   payload.Distractors,
		Explanation:   strings.TrimSpace(payload.Explanation),
		Confidence:    0.9,
	}

	for _, d := range payload.Distractors {
		if jaccardSimilarity(d, result.CorrectAnswer) > g.cfg.SimilarityLimit {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("distractor %q is close to the correct answer", d))
			result.Confidence -= 0.1
		}
	}
	if result.Confidence < 0.3 {
		result.Confidence = 0.3
	}
	return result
}

// GenerateExplanation produces an explanation scored by the quality
// heuristic; attempts below the configured threshold are retried.
func (g *Generator) GenerateExplanation(ctx context.Context, questionText, correctAnswer, topicName, contextText string) (*ExplanationResult, error) {
	promptText, err := g.prompts.Render(prompt.TemplateExplanation, prompt.ExplanationContext{
		Question:      questionText,
		CorrectAnswer: correctAnswer,
		Topic:         topicName,
		Context:       contextText,
	})
	if err != nil {
		return nil, err
	}

	var result *ExplanationResult
	err = retry("generate explanation", g.cfg.MaxAttempts, func(int) error {
		raw, err := g.call(ctx, promptText)
		if err != nil {
			return err
		}

		var payload explanationPayload
		if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("response is not an explanation object: %v", err)}
		}
		if strings.TrimSpace(payload.Explanation) == "" {
			return &ValidationError{Reason: "explanation is empty"}
		}

		quality := ExplanationQuality(payload.Explanation, topicName, correctAnswer)
		if quality < g.cfg.QualityThreshold {
			return &ValidationError{Reason: fmt.Sprintf("explanation quality %.2f below threshold %.2f", quality, g.cfg.QualityThreshold)}
		}

		result = &ExplanationResult{
			Explanation:      strings.TrimSpace(payload.Explanation),
			KeyPoints:        payload.KeyPoints,
			SourceReferences: payload.SourceReferences,
			Confidence:       quality,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateFollowup answers a student's follow-up question. Earlier
// exchanges travel as chat history so the model sees the conversation.
func (g *Generator) GenerateFollowup(ctx context.Context, question, topicName, contextText string, history []store.FollowupExchange) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("followup question is empty")
	}

	system, err := g.prompts.Render(prompt.TemplateFollowup, prompt.FollowupContext{
		Topic:   topicName,
		Context: contextText,
	})
	if err != nil {
		return "", err
	}

	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, ex := range history {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: ex.Question})
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: ex.Answer})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	var answer string
	err = retry("generate followup", g.cfg.MaxAttempts, func(int) error {
		raw, err := g.chat(ctx, messages)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return &ValidationError{Reason: "followup answer is empty"}
		}
		answer = raw
		return nil
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (g *Generator) call(ctx context.Context, promptText string) (string, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	return g.provider.Generate(callCtx, promptText,
		llm.WithTemperature(g.cfg.Temperature),
		llm.WithMaxTokens(g.cfg.MaxOutputTokens))
}

func (g *Generator) chat(ctx context.Context, messages []llm.Message) (string, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	return g.provider.Chat(callCtx, messages,
		llm.WithTemperature(g.cfg.Temperature),
		llm.WithMaxTokens(g.cfg.MaxOutputTokens))
}

func (g *Generator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.cfg.CallTimeout)
}

func buildQuestions(items []questionItem, topicName, difficulty string) []store.Question {
	now := time.Now()
	questions := make([]store.Question, 0, len(items))
	for _, item := range items {
		options := make(map[string]string, len(store.OptionLabels))
		for _, label := range store.OptionLabels {
			text, _ := option(item.Options, label)
			options[label] = strings.TrimSpace(text)
		}

		itemDifficulty := strings.ToLower(strings.TrimSpace(item.Difficulty))
		if !validDifficulty(itemDifficulty) {
			itemDifficulty = difficulty
		}

		questions = append(questions, store.Question{
			ID:            uuid.NewString(),
			Topic:         topicName,
			Question:      strings.TrimSpace(item.Question),
			Options:       options,
			CorrectAnswer: strings.ToUpper(strings.TrimSpace(item.CorrectAnswer)),
			Difficulty:    itemDifficulty,
			CreatedAt:     now,
		})
	}
	return questions
}

func validDifficulty(d string) bool {
	for _, v := range constant.Difficulties {
		if d == v {
			return true
		}
	}
	return false
}
