package embedding

// Task types forwarded to providers that distinguish how an embedding
// will be used. Providers without the concept ignore them.
const (
	TaskRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery     = "RETRIEVAL_QUERY"
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}
