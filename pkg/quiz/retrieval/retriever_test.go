package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/embedding"
	"ai-examprep-be/pkg/store"
	"ai-examprep-be/pkg/vectorstore/memory"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	values, ok := f.vectors[text]
	if !ok {
		values = []float32{1, 0, 0}
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: values},
	}, nil
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		TopK:           10,
		MinScore:       0,
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
		ContextBudget:  8000,
	}
}

func seedIndex(t *testing.T, docs ...store.Document) *memory.MemoryStore {
	t.Helper()
	index := memory.NewMemoryStore(3)
	require.NoError(t, index.Upsert(context.Background(), docs))
	return index
}

func TestSemanticOrdersByRelevance(t *testing.T) {
	index := seedIndex(t,
		store.Document{
			ID:        "bond_doc",
			Title:     "Bond Basics",
			Content:   "Bonds pay a fixed coupon until maturity.",
			Category:  constant.CategoryTextbook,
			Source:    "licensed_textbook",
			Embedding: []float32{1, 0, 0},
		},
		store.Document{
			ID:        "cooking_doc",
			Title:     "Soup Recipes",
			Content:   "Simmer the broth for two hours.",
			Category:  constant.CategoryTextbook,
			Source:    "licensed_textbook",
			Embedding: []float32{0, 1, 0},
		},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{"bonds": {1, 0, 0}}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Semantic(context.Background(), "bonds", Options{Limit: 5})
	require.NoError(t, err)

	require.Len(t, got.Documents, 2)
	require.Len(t, got.RelevanceScores, 2)
	assert.Equal(t, "bond_doc", got.Documents[0].ID)
	assert.InDelta(t, 1.0, got.RelevanceScores[0], 1e-9)
	assert.GreaterOrEqual(t, got.RelevanceScores[0], got.RelevanceScores[1])
	assert.Equal(t, "bonds", got.Query)
	assert.Equal(t, 2, got.TotalFound)
}

func TestSemanticFiltersByMinScore(t *testing.T) {
	index := seedIndex(t,
		store.Document{ID: "near", Content: "near", Embedding: []float32{1, 0, 0}},
		store.Document{ID: "far", Content: "far", Embedding: []float32{0, 1, 0}},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{"bonds": {1, 0, 0}}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Semantic(context.Background(), "bonds", Options{Limit: 5, MinScore: 0.9})
	require.NoError(t, err)

	require.Len(t, got.Documents, 1)
	assert.Equal(t, "near", got.Documents[0].ID)
}

func TestSemanticCategoryFilter(t *testing.T) {
	index := seedIndex(t,
		store.Document{ID: "reg", Category: constant.CategoryRegulation, Content: "r", Embedding: []float32{1, 0, 0}},
		store.Document{ID: "text", Category: constant.CategoryTextbook, Content: "t", Embedding: []float32{1, 0, 0}},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Semantic(context.Background(), "rules", Options{Limit: 5, Category: constant.CategoryRegulation})
	require.NoError(t, err)

	require.Len(t, got.Documents, 1)
	assert.Equal(t, "reg", got.Documents[0].ID)
}

func TestHybridBoostsKeywordMatches(t *testing.T) {
	index := seedIndex(t,
		store.Document{
			ID:        "with_kw",
			Title:     "Payments",
			Content:   "The coupon is paid twice a year.",
			Embedding: []float32{1, 0, 0},
		},
		store.Document{
			ID:        "without_kw",
			Title:     "Other",
			Content:   "Unrelated text about settlement.",
			Embedding: []float32{1, 0, 0},
		},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{"coupon": {1, 0, 0}}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Hybrid(context.Background(), "coupon", Options{Limit: 5})
	require.NoError(t, err)

	require.Len(t, got.Documents, 2)
	assert.Equal(t, "with_kw", got.Documents[0].ID)
	assert.InDelta(t, 1.0, got.RelevanceScores[0], 1e-9) // 0.7*1 + 0.3*1
	assert.InDelta(t, 0.7, got.RelevanceScores[1], 1e-9) // 0.7*1 + 0.3*0
}

func TestEnhancedKeepsMaxScoreAcrossQueries(t *testing.T) {
	index := seedIndex(t,
		store.Document{
			ID:        "d_bond",
			Content:   "Bonds pay a fixed coupon.",
			Embedding: []float32{1, 0, 0},
		},
		store.Document{
			ID:        "d_yield",
			Content:   "Yield measures annual return.",
			Embedding: []float32{0, 1, 0},
		},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"bonds": {1, 0, 0},
		"yield": {0, 1, 0},
	}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Enhanced(context.Background(), []string{"bonds", "yield"}, Options{Limit: 5})
	require.NoError(t, err)

	require.Len(t, got.Documents, 2)
	require.Len(t, got.RelevanceScores, 2)
	// Each document hits 1.0 on its own best query; the weaker scores
	// from the other query must not survive the merge.
	assert.InDelta(t, 1.0, got.RelevanceScores[0], 1e-9)
	assert.InDelta(t, 1.0, got.RelevanceScores[1], 1e-9)
	assert.Equal(t, "bonds", got.Query)
}

func TestEnhancedTruncatesLastDocumentToBudget(t *testing.T) {
	index := seedIndex(t,
		store.Document{ID: "first", Content: strings.Repeat("x", 100), Embedding: []float32{1, 0, 0}},
		store.Document{ID: "second", Content: strings.Repeat("y", 100), Embedding: []float32{0.9, 0.1, 0}},
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{"bonds": {1, 0, 0}}}
	r := NewRetriever(embedder, index, nil, testRetrievalConfig())

	got, err := r.Enhanced(context.Background(), []string{"bonds"}, Options{Limit: 5, ContextBudget: 150})
	require.NoError(t, err)

	require.Len(t, got.Documents, 2)
	assert.Equal(t, "first", got.Documents[0].ID)
	assert.Len(t, got.Documents[0].Content, 100)
	assert.Equal(t, "second", got.Documents[1].ID)
	assert.Len(t, got.Documents[1].Content, 50)
	assert.Equal(t, 150, got.ContentLength())
}

func TestEnhancedRequiresQueries(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, memory.NewMemoryStore(3), nil, testRetrievalConfig())

	_, err := r.Enhanced(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestHybridEmptyIndexReturnsEmptyContext(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, memory.NewMemoryStore(3), nil, testRetrievalConfig())

	got, err := r.Hybrid(context.Background(), "bonds", Options{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got.Documents)
	assert.Empty(t, got.RelevanceScores)
	assert.Equal(t, 0, got.TotalFound)
}
