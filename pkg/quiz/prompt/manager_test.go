package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQuestions(t *testing.T) {
	m := NewManager()

	out, err := m.Render(TemplateQuestions, QuestionsContext{
		Topic:      "bonds",
		Count:      3,
		Difficulty: "medium",
		Context:    "Bonds pay a coupon.",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "exactly 3 multiple-choice questions")
	assert.Contains(t, out, `"bonds"`)
	assert.Contains(t, out, "Bonds pay a coupon.")
	assert.Contains(t, out, "medium difficulty")
	assert.NotContains(t, out, "{{")
}

func TestRenderQuestionsWithoutContext(t *testing.T) {
	m := NewManager()

	out, err := m.Render(TemplateQuestions, QuestionsContext{
		Topic:      "bonds",
		Count:      1,
		Difficulty: "easy",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No study material was retrieved")
}

func TestRenderAnswer(t *testing.T) {
	m := NewManager()

	out, err := m.Render(TemplateAnswer, AnswerContext{
		Question:        "What does a coupon represent?",
		Context:         "The coupon is the periodic interest payment.",
		DistractorCount: 3,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "What does a coupon represent?")
	assert.Contains(t, out, "exactly 3 plausible but wrong answers")
}

func TestRenderExplanation(t *testing.T) {
	m := NewManager()

	out, err := m.Render(TemplateExplanation, ExplanationContext{
		Question:      "Which yield reflects reinvestment?",
		CorrectAnswer: "Yield to maturity",
		Topic:         "bonds",
		Context:       "Yield to maturity assumes coupons are reinvested.",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Which yield reflects reinvestment?")
	assert.Contains(t, out, "Yield to maturity")
	assert.Contains(t, out, "studying bonds")
}

func TestRenderFollowupFramesSession(t *testing.T) {
	m := NewManager()

	out, err := m.Render(TemplateFollowup, FollowupContext{
		Topic:   "bonds",
		Context: "Zero-coupon bonds are sold at a discount.",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "study session about bonds")
	assert.Contains(t, out, "Zero-coupon bonds are sold at a discount.")
}

func TestRenderUnknownTemplate(t *testing.T) {
	m := NewManager()

	_, err := m.Render("nonsense", QuestionsContext{Topic: "bonds", Count: 1, Difficulty: "easy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prompt template")
}

func TestRenderRejectsWrongContextType(t *testing.T) {
	m := NewManager()

	_, err := m.Render(TemplateQuestions, AnswerContext{Question: "q", DistractorCount: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected QuestionsContext")
}

func TestRenderValidatesRequiredFields(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name string
		id   string
		data interface{}
	}{
		{"questions missing topic", TemplateQuestions, QuestionsContext{Count: 1, Difficulty: "easy"}},
		{"questions zero count", TemplateQuestions, QuestionsContext{Topic: "bonds", Difficulty: "easy"}},
		{"answer missing question", TemplateAnswer, AnswerContext{DistractorCount: 3}},
		{"explanation missing answer", TemplateExplanation, ExplanationContext{Question: "q", Topic: "bonds"}},
		{"followup missing topic", TemplateFollowup, FollowupContext{Context: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Render(tt.id, tt.data)
			assert.Error(t, err)
		})
	}
}
