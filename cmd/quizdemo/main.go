package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/internal/dto"
	"ai-examprep-be/internal/pkg/logger"
	memoryrepo "ai-examprep-be/internal/repository/memory"
	"ai-examprep-be/internal/service"
	"ai-examprep-be/internal/tracer"
	"ai-examprep-be/pkg/chunking"
	"ai-examprep-be/pkg/embedding"
	"ai-examprep-be/pkg/embedding/jina"
	"ai-examprep-be/pkg/llm/factory"
	"ai-examprep-be/pkg/quiz/flow"
	"ai-examprep-be/pkg/quiz/generate"
	"ai-examprep-be/pkg/quiz/prompt"
	"ai-examprep-be/pkg/quiz/rerank"
	"ai-examprep-be/pkg/quiz/retrieval"
	"ai-examprep-be/pkg/quiz/session"
	"ai-examprep-be/pkg/quiz/topic"
	memorystore "ai-examprep-be/pkg/vectorstore/memory"

	"github.com/fatih/color"
)

// The quizdemo walks the whole pipeline in one process with no external
// storage: seed materials are chunked and embedded into the in-memory
// vector store, then a quiz session runs start to restart with every
// stage printed. It needs only the configured embedding and LLM
// providers to be reachable.

type seedMaterial struct {
	title    string
	category string
	source   string
	chapter  string
	content  string
}

var seedMaterials = []seedMaterial{
	{
		title:    "Bond Fundamentals",
		category: constant.CategoryTextbook,
		source:   "licensed_textbook",
		chapter:  "Chapter 3: Debt Securities",
		content: `A bond is a debt security under which the issuer owes the holder the principal at maturity and, in most cases, periodic interest called the coupon. The coupon rate is fixed at issuance as a percentage of par value. Because the coupon stream is fixed, the market price of a bond moves inversely to market interest rates: when rates rise, existing bonds with lower coupons become less attractive and their prices fall; when rates fall, existing bonds gain value. The yield to maturity expresses the total return of holding a bond to maturity, accounting for its current price, coupon payments and redemption at par. Bonds with longer maturity are more sensitive to interest rate changes than short-dated bonds, since more of their value sits in distant payments. Credit quality also drives pricing: a downgrade of the issuer widens the yield spread over government bonds. Principal repayment ranks ahead of equity in liquidation, which is why bonds are considered senior to stocks issued by the same company.`,
	},
	{
		title:    "Past Exam: Bond Pricing",
		category: constant.CategoryQuestionPool,
		source:   "practice_exams",
		content: `Question from a previous examination: An investor holds a 10-year bond with a 2% annual coupon purchased at par. Market interest rates for comparable bonds rise to 3%. Which statement is correct? The market price of the bond falls below par, because newly issued bonds pay a higher coupon for the same risk, so the existing 2% bond must trade at a discount for its yield to match the market. The investor still receives the fixed 2% coupon and full principal at maturity if the issuer does not default. Rationale: bond prices and market yields move in opposite directions, and the effect is stronger the longer the remaining maturity.`,
	},
	{
		title:    "Disclosure Rules for Public Offerings",
		category: constant.CategoryRegulation,
		source:   "regulatory_notice",
		content: `When securities, including corporate bonds, are offered to the public, the issuer must file a securities registration statement and deliver a prospectus to investors before or at the time of sale. The prospectus must describe the terms of the securities, the use of proceeds, and the material risks of the investment. Selling securities to the public without the required registration and prospectus delivery is prohibited and subject to administrative sanctions. Dealers soliciting investors must explain the product's risk profile in a manner suited to the customer's knowledge, experience and financial standing.`,
	},
}

func main() {
	color.Cyan("🚀 Exam-Prep Quiz Pipeline Demo\n")

	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()
	ctx := context.Background()

	// Wire the pipeline directly against in-memory stores. Only the AI
	// providers are external.
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaKey)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
	}

	llmModel := cfg.Ai.LLMModel
	llmKey := cfg.Ai.HuggingFaceKey
	if cfg.Ai.LLMProvider == "gemini" {
		llmModel = cfg.Ai.GeminiLLMModel
		llmKey = cfg.Ai.GoogleGeminiKey
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, llmModel, cfg.Ai.OllamaBaseURL, llmKey)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}

	vectorIndex := memorystore.NewMemoryStore(cfg.Ai.EmbeddingDimension)
	defer vectorIndex.Close()

	// File-only logger keeps the colored walkthrough output readable.
	sysLogger := logger.NewIsolatedLogger("logs/quizdemo.log")
	sessionStore := memoryrepo.NewSessionRepository(cfg.Session.TTL, cfg.Session.SweepInterval)
	sessions := session.NewManager(sessionStore, cfg.Session.TTL)
	flowController := flow.NewController(sessions)
	topicProcessor := topic.NewProcessor(embeddingProvider, cfg.Retrieval.AnchorMinScore)
	reranker := rerank.NewReranker(cfg.Rerank)
	retriever := retrieval.NewRetriever(embeddingProvider, vectorIndex, reranker, cfg.Retrieval)
	generator := generate.NewGenerator(llmProvider, prompt.NewManager(), cfg.Generation)

	quizService := service.NewQuizService(topicProcessor, retriever, generator, sessions, flowController, sysLogger)

	// Seed the vector store.
	color.Yellow("[SEED] Indexing %d study materials into the in-memory store", len(seedMaterials))
	chunker := chunking.NewProcessor(cfg.Chunking.ChunkSize, cfg.Chunking.MinChunkSize, cfg.Chunking.Overlap)
	for _, m := range seedMaterials {
		docs, err := chunker.Process(chunking.Input{
			Title:    m.title,
			Content:  m.content,
			Category: m.category,
			Source:   m.source,
			Chapter:  m.chapter,
		})
		if err != nil {
			color.Red("Failed to chunk %q: %v", m.title, err)
			os.Exit(1)
		}
		for i := range docs {
			res, err := embeddingProvider.Generate(docs[i].Content, embedding.TaskRetrievalDocument)
			if err != nil {
				color.Red("Failed to embed %q: %v", m.title, err)
				os.Exit(1)
			}
			docs[i].Embedding = res.Embedding.Values
		}
		if err := vectorIndex.Upsert(ctx, docs); err != nil {
			color.Red("Failed to store %q: %v", m.title, err)
			os.Exit(1)
		}
		fmt.Printf("  indexed %q as %d chunk(s)\n", m.title, len(docs))
	}

	// 1. An off-domain topic is rejected with suggestions.
	color.Yellow("\n[1] Topics outside the exam domain are rejected")
	_, err = quizService.StartQuiz(ctx, &dto.StartQuizRequest{Topic: "ancient pottery techniques", QuestionCount: 3})
	var topicErr *service.TopicError
	if errors.As(err, &topicErr) {
		color.Green("Rejected as expected: %v", topicErr)
	} else {
		color.Red("Expected a topic rejection, got: %v", err)
	}

	// 2. Start a session on a real subject.
	color.Yellow("\n[2] Start a quiz on 'bonds'")
	start, err := quizService.StartQuiz(ctx, &dto.StartQuizRequest{Topic: "bonds", QuestionCount: 3, UserId: "demo-user"})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Session %s (stage: %s, matched %q via %s, confidence %.2f)",
		start.SessionId, start.Stage, start.MatchedSubject, start.Method, start.Confidence)

	// 3. Out-of-order actions fail with the allowed alternatives.
	color.Yellow("\n[3] Actions are stage-checked: submitting answers now is rejected")
	_, err = quizService.SubmitAnswers(ctx, &dto.SubmitAnswersRequest{
		SessionId: start.SessionId,
		Answers:   map[string]string{"q": "A"},
	})
	var stateErr *flow.StateError
	if errors.As(err, &stateErr) {
		color.Green("Rejected as expected: %v", stateErr)
	} else {
		color.Red("Expected a state rejection, got: %v", err)
	}

	// 4. Generate the question batch.
	color.Yellow("\n[4] Generate questions (retrieval + LLM)")
	gen, err := quizService.GenerateQuestions(ctx, &dto.GenerateQuestionsRequest{SessionId: start.SessionId})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Stage: %s | %d questions from %d retrieved docs (%d context chars, degraded=%t)",
		gen.Stage, len(gen.Questions), gen.RetrievedDocs, gen.ContextSize, gen.DegradedMode)
	for i, q := range gen.Questions {
		fmt.Printf("\n  Q%d. %s\n", i+1, q.Question)
		for _, label := range []string{"A", "B", "C", "D"} {
			fmt.Printf("      %s) %s\n", label, q.Options[label])
		}
	}

	// 5. The student answers everything with "A".
	color.Yellow("\n[5] Submit answers (student picks A for everything)")
	answers := make(map[string]string, len(gen.Questions))
	for _, q := range gen.Questions {
		answers[q.Id] = "A"
	}
	reveal, err := quizService.SubmitAnswers(ctx, &dto.SubmitAnswersRequest{SessionId: start.SessionId, Answers: answers})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Stage: %s | Score: %d/%d", reveal.Stage, reveal.Score, reveal.Total)
	for _, r := range reveal.Results {
		mark := "✗"
		if r.Correct {
			mark = "✓"
		}
		fmt.Printf("  %s answered %s, correct %s\n", mark, r.UserAnswer, r.CorrectAnswer)
	}

	// 6. Explanations for the whole batch.
	color.Yellow("\n[6] Show explanations")
	expl, err := quizService.ShowExplanations(ctx, start.SessionId)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Stage: %s", expl.Stage)
	for i, e := range expl.Explanations {
		fmt.Printf("\n  Q%d (%s is correct, confidence %.2f):\n  %s\n", i+1, e.CorrectAnswer, e.Confidence, e.Explanation)
	}

	// 7. Follow-up conversation, twice to show the loop.
	color.Yellow("\n[7] Ask a follow-up question")
	fu1, err := quizService.AskFollowup(ctx, &dto.FollowupRequest{
		SessionId: start.SessionId,
		Question:  "Why do bond prices fall when interest rates rise?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Stage: %s", fu1.Stage)
	fmt.Printf("  Q: %s\n  A: %s\n", fu1.Question, fu1.Answer)

	color.Yellow("\n[8] The conversation continues in the same stage")
	fu2, err := quizService.AskFollowup(ctx, &dto.FollowupRequest{
		SessionId: start.SessionId,
		Question:  "Does a longer maturity make that price move bigger or smaller?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Stage: %s", fu2.Stage)
	fmt.Printf("  Q: %s\n  A: %s\n", fu2.Question, fu2.Answer)

	// 8. Restart carries the topic into a fresh session.
	color.Yellow("\n[9] Restart the quiz")
	restart, err := quizService.Restart(ctx, start.SessionId)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("New session %s (stage: %s, topic %q, %d questions), old session %s is gone",
		restart.SessionId, restart.Stage, restart.Topic, restart.QuestionCount, restart.OldSessionId)

	color.Cyan("\n✅ Demo completed")
}
