package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-examprep-be/internal/dto"
	"ai-examprep-be/internal/pkg/logger"
	"ai-examprep-be/internal/pkg/serverutils"
	"ai-examprep-be/pkg/quiz/flow"
	"ai-examprep-be/pkg/quiz/generate"
	"ai-examprep-be/pkg/quiz/retrieval"
	"ai-examprep-be/pkg/quiz/session"
	"ai-examprep-be/pkg/quiz/topic"
	"ai-examprep-be/pkg/store"

	"go.opentelemetry.io/otel"
)

// TopicError reports a topic outside the exam domain, carrying the
// closest known subjects so the caller can offer them.
type TopicError struct {
	Topic       string
	Suggestions []string
}

func (e *TopicError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("topic %q is outside the exam domain", e.Topic)
	}
	return fmt.Sprintf("topic %q is outside the exam domain, try: %s",
		e.Topic, strings.Join(e.Suggestions, ", "))
}

// IQuizService runs the quiz pipeline end to end: topic validation,
// retrieval, generation and the staged session flow. Stage order is
// enforced by the flow controller; every method that spends LLM calls
// checks the stage before doing any work.
type IQuizService interface {
	StartQuiz(ctx context.Context, request *dto.StartQuizRequest) (*dto.StartQuizResponse, error)
	GenerateQuestions(ctx context.Context, request *dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error)
	SubmitAnswers(ctx context.Context, request *dto.SubmitAnswersRequest) (*dto.RevealAnswersResponse, error)
	ShowExplanations(ctx context.Context, sessionId string) (*dto.ShowExplanationsResponse, error)
	AskFollowup(ctx context.Context, request *dto.FollowupRequest) (*dto.FollowupResponse, error)
	Restart(ctx context.Context, sessionId string) (*dto.RestartQuizResponse, error)
	GetSession(ctx context.Context, sessionId string) (*store.QuizSession, error)
	StartSessionSweeper(ctx context.Context, interval time.Duration)
}

type quizService struct {
	topics      *topic.Processor
	retriever   *retrieval.Retriever
	generator   *generate.Generator
	sessions    *session.Manager
	flowCtl     *flow.Controller
	logger      logger.ILogger
	pipelineLog *log.Logger
}

func NewQuizService(
	topics *topic.Processor,
	retriever *retrieval.Retriever,
	generator *generate.Generator,
	sessions *session.Manager,
	flowCtl *flow.Controller,
	logger logger.ILogger,
) IQuizService {
	return &quizService{
		topics:      topics,
		retriever:   retriever,
		generator:   generator,
		sessions:    sessions,
		flowCtl:     flowCtl,
		logger:      logger,
		pipelineLog: initPipelineLogger(),
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "quiz_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[QUIZ-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// StartQuiz validates the topic and opens a session in the input stage.
// An invalid topic creates nothing and returns a TopicError with
// suggestions.
func (qs *quizService) StartQuiz(ctx context.Context, request *dto.StartQuizRequest) (*dto.StartQuizResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	result := qs.topics.Validate(request.Topic)
	qs.pipelineLog.Printf("[TOPIC] topic=%q valid=%t method=%s confidence=%.2f",
		request.Topic, result.IsValid, result.Method, result.Confidence)

	if !result.IsValid {
		return nil, &TopicError{Topic: request.Topic, Suggestions: result.Suggestions}
	}

	s, err := qs.sessions.Create(ctx, result.NormalizedTopic, request.QuestionCount, request.UserId)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	qs.logger.Info("quiz", "session started", map[string]interface{}{
		"session_id": s.ID,
		"topic":      s.Topic,
		"method":     result.Method,
		"confidence": result.Confidence,
	})

	return &dto.StartQuizResponse{
		SessionId:       s.ID,
		Stage:           s.CurrentStage,
		Topic:           request.Topic,
		NormalizedTopic: result.NormalizedTopic,
		MatchedSubject:  result.MatchedSubject,
		Method:          result.Method,
		Confidence:      result.Confidence,
	}, nil
}

// GenerateQuestions retrieves study material for the session topic and
// generates the question batch. Retrieval trouble degrades to
// generation from general knowledge rather than failing the request.
func (qs *quizService) GenerateQuestions(ctx context.Context, request *dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("quiz").Start(ctx, "quiz.generate_questions")
	defer span.End()

	s, err := qs.sessions.Get(ctx, request.SessionId)
	if err != nil {
		return nil, err
	}
	if err := qs.flowCtl.Validate(s.ID, s.CurrentStage, flow.ActionGenerateQuestions); err != nil {
		return nil, err
	}

	rctx, degraded := qs.retrieveTopicContext(ctx, s.Topic)
	contextText := formatStudyMaterial(rctx)
	sources := sourceLabels(rctx)

	questions, err := qs.generator.GenerateQuestions(ctx, s.Topic, s.QuestionCount, request.Difficulty, contextText)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	for i := range questions {
		questions[i].Sources = sources
	}

	updated, err := qs.flowCtl.Execute(ctx, s.ID, flow.ActionGenerateQuestions, flow.TransitionData{Questions: questions})
	if err != nil {
		return nil, err
	}

	qs.pipelineLog.Printf("[GENERATE] session=%s questions=%d context_chars=%d degraded=%t",
		updated.ID, len(questions), len(contextText), degraded)
	qs.logger.Info("quiz", "questions generated", map[string]interface{}{
		"session_id": updated.ID,
		"questions":  len(questions),
		"degraded":   degraded,
	})

	return &dto.GenerateQuestionsResponse{
		SessionId:     updated.ID,
		Stage:         updated.CurrentStage,
		Questions:     toQuestionDTOs(updated.Questions),
		ContextSize:   len(contextText),
		SourcesUsed:   sources,
		DegradedMode:  degraded,
		RetrievedDocs: docCount(rctx),
	}, nil
}

// SubmitAnswers records the student's picks and scores them against the
// stored answer key.
func (qs *quizService) SubmitAnswers(ctx context.Context, request *dto.SubmitAnswersRequest) (*dto.RevealAnswersResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	updated, err := qs.flowCtl.Execute(ctx, request.SessionId, flow.ActionRevealAnswers, flow.TransitionData{UserAnswers: request.Answers})
	if err != nil {
		return nil, err
	}

	results := make([]dto.AnswerResultDTO, 0, len(updated.Questions))
	score := 0
	for _, q := range updated.Questions {
		userAnswer := updated.UserAnswers[q.ID]
		correct := userAnswer == q.CorrectAnswer
		if correct {
			score++
		}
		results = append(results, dto.AnswerResultDTO{
			QuestionId:    q.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
		})
	}

	qs.logger.Info("quiz", "answers revealed", map[string]interface{}{
		"session_id": updated.ID,
		"score":      score,
		"total":      len(updated.Questions),
	})

	return &dto.RevealAnswersResponse{
		SessionId: updated.ID,
		Stage:     updated.CurrentStage,
		Results:   results,
		Score:     score,
		Total:     len(updated.Questions),
	}, nil
}

// ShowExplanations generates an explanation for every question in the
// batch. One retrieval call serves all of them; a question whose
// explanation fails its whole retry budget fails the request.
func (qs *quizService) ShowExplanations(ctx context.Context, sessionId string) (*dto.ShowExplanationsResponse, error) {
	ctx, span := otel.Tracer("quiz").Start(ctx, "quiz.show_explanations")
	defer span.End()

	s, err := qs.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if err := qs.flowCtl.Validate(s.ID, s.CurrentStage, flow.ActionShowExplanations); err != nil {
		return nil, err
	}

	rctx, _ := qs.retrieveTopicContext(ctx, s.Topic)
	contextText := formatStudyMaterial(rctx)

	explanations := make(map[string]string, len(s.Questions))
	items := make([]dto.ExplanationDTO, 0, len(s.Questions))
	for _, q := range s.Questions {
		answerText := fmt.Sprintf("%s. %s", q.CorrectAnswer, q.Options[q.CorrectAnswer])
		result, err := qs.generator.GenerateExplanation(ctx, q.Question, answerText, s.Topic, contextText)
		if err != nil {
			return nil, fmt.Errorf("explain question %s: %w", q.ID, err)
		}
		explanations[q.ID] = result.Explanation
		items = append(items, dto.ExplanationDTO{
			QuestionId:    q.ID,
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   result.Explanation,
			Confidence:    result.Confidence,
		})
		qs.pipelineLog.Printf("[EXPLAIN] session=%s question=%s confidence=%.2f", s.ID, q.ID, result.Confidence)
	}

	updated, err := qs.flowCtl.Execute(ctx, s.ID, flow.ActionShowExplanations, flow.TransitionData{Explanations: explanations})
	if err != nil {
		return nil, err
	}

	return &dto.ShowExplanationsResponse{
		SessionId:    updated.ID,
		Stage:        updated.CurrentStage,
		Explanations: items,
	}, nil
}

// AskFollowup answers a free-form question in the context of the
// session. Retrieval runs on the follow-up question itself, not the
// session topic: students wander.
func (qs *quizService) AskFollowup(ctx context.Context, request *dto.FollowupRequest) (*dto.FollowupResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("quiz").Start(ctx, "quiz.ask_followup")
	defer span.End()

	s, err := qs.sessions.Get(ctx, request.SessionId)
	if err != nil {
		return nil, err
	}
	if err := qs.flowCtl.Validate(s.ID, s.CurrentStage, flow.ActionAskFollowup); err != nil {
		return nil, err
	}

	var contextText string
	rctx, err := qs.retriever.Hybrid(ctx, request.Question, retrieval.Options{Rerank: true})
	if err != nil {
		qs.logger.Warn("quiz", "followup retrieval failed, answering without study material", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
	} else {
		contextText = formatStudyMaterial(rctx)
		qs.pipelineLog.Printf("[FOLLOWUP] session=%s docs=%d chars=%d", s.ID, len(rctx.Documents), len(contextText))
	}

	answer, err := qs.generator.GenerateFollowup(ctx, request.Question, s.Topic, contextText, s.Followups)
	if err != nil {
		return nil, fmt.Errorf("answer followup: %w", err)
	}

	updated, err := qs.flowCtl.Execute(ctx, s.ID, flow.ActionAskFollowup, flow.TransitionData{
		FollowupQuestion: request.Question,
		FollowupAnswer:   answer,
	})
	if err != nil {
		return nil, err
	}

	last := updated.Followups[len(updated.Followups)-1]
	return &dto.FollowupResponse{
		SessionId: updated.ID,
		Stage:     updated.CurrentStage,
		Question:  last.Question,
		Answer:    last.Answer,
		AskedAt:   last.CreatedAt,
	}, nil
}

// Restart abandons the current session and opens a fresh one with the
// same topic, count and user.
func (qs *quizService) Restart(ctx context.Context, sessionId string) (*dto.RestartQuizResponse, error) {
	updated, err := qs.flowCtl.Execute(ctx, sessionId, flow.ActionRestart, flow.TransitionData{})
	if err != nil {
		return nil, err
	}

	qs.logger.Info("quiz", "session restarted", map[string]interface{}{
		"old_session_id": sessionId,
		"session_id":     updated.ID,
	})

	return &dto.RestartQuizResponse{
		OldSessionId:  sessionId,
		SessionId:     updated.ID,
		Stage:         updated.CurrentStage,
		Topic:         updated.Topic,
		QuestionCount: updated.QuestionCount,
	}, nil
}

func (qs *quizService) GetSession(ctx context.Context, sessionId string) (*store.QuizSession, error) {
	return qs.sessions.Get(ctx, sessionId)
}

// StartSessionSweeper deletes expired sessions on a fixed interval until
// the context is cancelled. Stores with native TTL expire entries on
// their own; the sweep covers lazy stores and keeps counts honest.
func (qs *quizService) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := qs.sessions.CleanupExpired(ctx)
				if err != nil {
					qs.logger.Warn("quiz", "session sweep failed", map[string]interface{}{
						"error": err.Error(),
					})
					continue
				}
				if removed > 0 {
					qs.logger.Info("quiz", "expired sessions removed", map[string]interface{}{
						"count": removed,
					})
				}
			}
		}
	}()
}

// retrieveTopicContext runs expanded-query retrieval for a session
// topic. The second return reports degraded mode: retrieval failed or
// found nothing, and generation proceeds from general knowledge.
func (qs *quizService) retrieveTopicContext(ctx context.Context, topicName string) (*store.RetrievedContext, bool) {
	ctx, span := otel.Tracer("quiz").Start(ctx, "quiz.retrieve")
	defer span.End()

	queries := topic.ExpandQueries(topic.Normalize(topicName))
	rctx, err := qs.retriever.Enhanced(ctx, queries, retrieval.Options{Rerank: true})
	if err != nil {
		qs.logger.Warn("quiz", "retrieval failed, continuing without study material", map[string]interface{}{
			"topic": topicName,
			"error": err.Error(),
		})
		qs.pipelineLog.Printf("[RETRIEVAL] topic=%q failed: %v", topicName, err)
		return nil, true
	}

	qs.pipelineLog.Printf("[RETRIEVAL] topic=%q queries=%d docs=%d chars=%d",
		topicName, len(queries), len(rctx.Documents), rctx.ContentLength())

	if len(rctx.Documents) == 0 {
		qs.logger.Warn("quiz", "no study material found, generating from general knowledge", map[string]interface{}{
			"topic": topicName,
		})
		return rctx, true
	}
	return rctx, false
}

// formatStudyMaterial renders retrieved documents into the prompt
// context block, best hit first.
func formatStudyMaterial(rctx *store.RetrievedContext) string {
	if rctx == nil || len(rctx.Documents) == 0 {
		return ""
	}
	var b strings.Builder
	for i := range rctx.Documents {
		doc := &rctx.Documents[i]
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s (source: %s, %s)\n", i+1, doc.Title, doc.Source, doc.Category)
		b.WriteString(doc.Content)
	}
	return b.String()
}

// sourceLabels returns the distinct source labels in rank order.
func sourceLabels(rctx *store.RetrievedContext) []string {
	if rctx == nil {
		return nil
	}
	seen := make(map[string]bool, len(rctx.Documents))
	var labels []string
	for i := range rctx.Documents {
		src := rctx.Documents[i].Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		labels = append(labels, src)
	}
	return labels
}

func docCount(rctx *store.RetrievedContext) int {
	if rctx == nil {
		return 0
	}
	return len(rctx.Documents)
}

func toQuestionDTOs(questions []store.Question) []dto.QuestionDTO {
	out := make([]dto.QuestionDTO, 0, len(questions))
	for _, q := range questions {
		out = append(out, dto.QuestionDTO{
			Id:         q.ID,
			Question:   q.Question,
			Options:    q.Options,
			Difficulty: q.Difficulty,
		})
	}
	return out
}
