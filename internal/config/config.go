package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Retrieval  RetrievalConfig
	Rerank     RerankConfig
	Generation GenerationConfig
	Session    SessionConfig
	Chunking   ChunkingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	LLMLogPath  string
	NatsURL     string
	RedisURL    string
	IngestTopic string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini", "ollama" or "jina"
	LLMProvider        string // "gemini", "ollama" or "huggingface"
	VectorStore        string // "pgvector", "qdrant" or "memory"
	SessionStore       string // "memory" or "redis"
	GoogleGeminiKey    string
	JinaKey            string
	HuggingFaceKey     string
	GeminiLLMModel     string
	LLMModel           string
	OllamaBaseURL      string
	OllamaEmbedModel   string
	QdrantAddr         string
	QdrantCollection   string
	EmbeddingDimension int
}

type RetrievalConfig struct {
	TopK           int
	MinScore       float64
	SemanticWeight float64
	KeywordWeight  float64
	ContextBudget  int // characters
	AnchorMinScore float64
}

type RerankConfig struct {
	RetrievalWeight  float64
	AuthorityWeight  float64
	RecencyWeight    float64
	DiversityWeight  float64
	TypeWeight       float64
	HalfLifeDays     float64
	MaxPerSource     int
	SourceAuthority  map[string]float64
	TypePreference   map[string]float64
	RegulationBoost  float64
	MetadataRichness float64
}

type GenerationConfig struct {
	MaxAttempts      int
	CallTimeout      time.Duration
	Temperature      float64
	MaxOutputTokens  int
	DistractorCount  int
	QualityThreshold float64
	SimilarityLimit  float64
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type ChunkingConfig struct {
	ChunkSize    int
	MinChunkSize int
	Overlap      int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log.csv"),
			LLMLogPath:  getEnv("LLM_LOG_PATH", "llm_pipeline.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			IngestTopic: getEnv("INDEX_MATERIAL_TOPIC_NAME", "INDEX_MATERIAL"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			VectorStore:        getEnv("VECTOR_STORE", "pgvector"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			GoogleGeminiKey:    getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaKey:            getEnv("JINA_API_KEY", ""),
			HuggingFaceKey:     getEnv("HUGGINGFACE_API_KEY", ""),
			GeminiLLMModel:     getEnv("GEMINI_LLM_MODEL", "gemini-2.0-flash"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			QdrantAddr:         getEnv("QDRANT_ADDR", "localhost:6334"),
			QdrantCollection:   getEnv("QDRANT_COLLECTION", "exam_materials"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
		},
		Retrieval: RetrievalConfig{
			TopK:           getEnvAsInt("RETRIEVAL_TOP_K", 10),
			MinScore:       getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.3),
			SemanticWeight: getEnvAsFloat("RETRIEVAL_SEMANTIC_WEIGHT", 0.7),
			KeywordWeight:  getEnvAsFloat("RETRIEVAL_KEYWORD_WEIGHT", 0.3),
			ContextBudget:  getEnvAsInt("RETRIEVAL_CONTEXT_BUDGET", 8000),
			AnchorMinScore: getEnvAsFloat("TOPIC_ANCHOR_MIN_SCORE", 0.6),
		},
		Rerank: RerankConfig{
			RetrievalWeight: getEnvAsFloat("RERANK_RETRIEVAL_WEIGHT", 0.5),
			AuthorityWeight: getEnvAsFloat("RERANK_AUTHORITY_WEIGHT", 0.2),
			RecencyWeight:   getEnvAsFloat("RERANK_RECENCY_WEIGHT", 0.1),
			DiversityWeight: getEnvAsFloat("RERANK_DIVERSITY_WEIGHT", 0.1),
			TypeWeight:      getEnvAsFloat("RERANK_TYPE_WEIGHT", 0.1),
			HalfLifeDays:    getEnvAsFloat("RERANK_HALF_LIFE_DAYS", 730),
			MaxPerSource:    getEnvAsInt("RERANK_MAX_PER_SOURCE", 3),
			SourceAuthority: map[string]float64{
				"official_curriculum": 1.0,
				"regulatory_notice":   0.95,
				"licensed_textbook":   0.85,
				"practice_exams":      0.7,
			},
			TypePreference: map[string]float64{
				"textbook":      0.8,
				"question_pool": 1.0,
				"regulation":    0.6,
			},
			RegulationBoost:  getEnvAsFloat("RERANK_REGULATION_BOOST", 0.1),
			MetadataRichness: getEnvAsFloat("RERANK_METADATA_RICHNESS", 0.05),
		},
		Generation: GenerationConfig{
			MaxAttempts:      getEnvAsInt("GENERATION_MAX_ATTEMPTS", 3),
			CallTimeout:      getEnvAsDuration("GENERATION_CALL_TIMEOUT", 60*time.Second),
			Temperature:      getEnvAsFloat("GENERATION_TEMPERATURE", 0.7),
			MaxOutputTokens:  getEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS", 2048),
			DistractorCount:  getEnvAsInt("GENERATION_DISTRACTOR_COUNT", 3),
			QualityThreshold: getEnvAsFloat("EXPLANATION_QUALITY_THRESHOLD", 0.5),
			SimilarityLimit:  getEnvAsFloat("DISTRACTOR_SIMILARITY_LIMIT", 0.8),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1500),
			MinChunkSize: getEnvAsInt("MIN_CHUNK_SIZE", 100),
			Overlap:      getEnvAsInt("CHUNK_OVERLAP", 200),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
