package bootstrap

import (
	"context"
	"log"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/pkg/logger"
	memoryrepo "ai-examprep-be/internal/repository/memory"
	redisrepo "ai-examprep-be/internal/repository/redis"
	"ai-examprep-be/internal/repository/unitofwork"
	"ai-examprep-be/internal/service"
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
	"ai-examprep-be/pkg/vectorstore"
	memorystore "ai-examprep-be/pkg/vectorstore/memory"
	"ai-examprep-be/pkg/vectorstore/pgvector"
	"ai-examprep-be/pkg/vectorstore/qdrant"

	pktNats "ai-examprep-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds the wired application. Background services are exposed
// so main can start them; VectorIndex is exposed so main can close it.
type Container struct {
	MaterialService service.IMaterialService
	QuizService     service.IQuizService
	IndexerService  service.IIndexerService

	VectorIndex vectorstore.Store
	Sessions    *session.Manager
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmModel := cfg.Ai.LLMModel
	llmKey := cfg.Ai.HuggingFaceKey
	if cfg.Ai.LLMProvider == "gemini" {
		llmModel = cfg.Ai.GeminiLLMModel
		llmKey = cfg.Ai.GoogleGeminiKey
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		llmModel,
		cfg.Ai.OllamaBaseURL,
		llmKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, llmModel)

	// 4. Vector Index
	var vectorIndex vectorstore.Store
	switch cfg.Ai.VectorStore {
	case "qdrant":
		qdrantStore, err := qdrant.NewQdrantStore(cfg.Ai.QdrantAddr, cfg.Ai.QdrantCollection, cfg.Ai.EmbeddingDimension)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to Qdrant: %v", err)
		}
		vectorIndex = qdrantStore
		log.Printf("[INFO] Using Vector Store: QDRANT (%s)", cfg.Ai.QdrantAddr)
	case "memory":
		vectorIndex = memorystore.NewMemoryStore(cfg.Ai.EmbeddingDimension)
		log.Printf("[INFO] Using Vector Store: MEMORY (non-persistent)")
	default:
		vectorIndex = pgvector.NewPgVectorStore(db)
		log.Printf("[INFO] Using Vector Store: PGVECTOR")
	}

	// 5. Session Storage
	var sessionStore session.Store
	if cfg.Ai.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionStore = redisrepo.NewSessionRepository(rdb)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionStore = memoryrepo.NewSessionRepository(cfg.Session.TTL, cfg.Session.SweepInterval)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// 6. NATS (best effort, nil publisher is tolerated downstream)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 7. Quiz Pipeline
	topicProcessor := topic.NewProcessor(embeddingProvider, cfg.Retrieval.AnchorMinScore)
	reranker := rerank.NewReranker(cfg.Rerank)
	retriever := retrieval.NewRetriever(embeddingProvider, vectorIndex, reranker, cfg.Retrieval)
	prompts := prompt.NewManager()
	generator := generate.NewGenerator(llmProvider, prompts, cfg.Generation)
	sessions := session.NewManager(sessionStore, cfg.Session.TTL)
	flowController := flow.NewController(sessions)

	chunkProcessor := chunking.NewProcessor(cfg.Chunking.ChunkSize, cfg.Chunking.MinChunkSize, cfg.Chunking.Overlap)

	// 8. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	indexerService := service.NewIndexerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		chunkProcessor,
		embeddingProvider,
		vectorIndex,
		natsPub,
		sysLogger,
	)
	materialService := service.NewMaterialService(
		uowFactory,
		publisherService,
		vectorIndex,
		natsPub,
		sysLogger,
	)
	quizService := service.NewQuizService(
		topicProcessor,
		retriever,
		generator,
		sessions,
		flowController,
		sysLogger,
	)

	return &Container{
		MaterialService: materialService,
		QuizService:     quizService,
		IndexerService:  indexerService,

		VectorIndex: vectorIndex,
		Sessions:    sessions,
	}
}
