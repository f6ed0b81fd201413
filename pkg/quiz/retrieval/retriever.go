package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/pkg/embedding"
	"ai-examprep-be/pkg/quiz/rerank"
	"ai-examprep-be/pkg/quiz/topic"
	"ai-examprep-be/pkg/store"
	"ai-examprep-be/pkg/vectorstore"
)

// Options tunes a single retrieval call. Zero values fall back to the
// configured defaults; a negative MinScore disables score filtering.
type Options struct {
	Limit         int
	Category      string
	MinScore      float64
	Rerank        bool
	ContextBudget int
}

// Retriever finds relevant documents for a query. Semantic mode runs a
// plain vector search; hybrid mode blends the vector score with a
// keyword re-score; enhanced mode merges hybrid results across expanded
// query variants under a context-size budget.
type Retriever struct {
	provider embedding.EmbeddingProvider
	index    vectorstore.Store
	reranker *rerank.Reranker
	cfg      config.RetrievalConfig
}

// NewRetriever wires a retriever. A nil reranker disables reranking
// regardless of options.
func NewRetriever(provider embedding.EmbeddingProvider, index vectorstore.Store, reranker *rerank.Reranker, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		provider: provider,
		index:    index,
		reranker: reranker,
		cfg:      cfg,
	}
}

// Semantic retrieves the nearest documents by embedding distance,
// scored as 1 - distance.
func (r *Retriever) Semantic(ctx context.Context, query string, opts Options) (*store.RetrievedContext, error) {
	limit := r.limit(opts)

	candidates, err := r.semanticCandidates(ctx, query, limit, opts)
	if err != nil {
		return nil, err
	}

	total := len(candidates)
	candidates = r.maybeRerank(candidates, opts)
	return buildContext(query, candidates, total, limit), nil
}

// Hybrid runs semantic and keyword search in parallel and merges the
// two score sets per document id.
func (r *Retriever) Hybrid(ctx context.Context, query string, opts Options) (*store.RetrievedContext, error) {
	candidates, err := r.hybridCandidates(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	total := len(candidates)
	limit := r.limit(opts)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	candidates = r.maybeRerank(candidates, opts)
	return buildContext(query, candidates, total, limit), nil
}

// Enhanced issues every query variant, keeps the best score seen per
// document and fills the result from the top until the character budget
// is spent. The last admitted document is truncated rather than dropped
// when the budget runs short.
func (r *Retriever) Enhanced(ctx context.Context, queries []string, opts Options) (*store.RetrievedContext, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries to retrieve")
	}

	best := make(map[string]rerank.Candidate)
	for _, query := range queries {
		candidates, err := r.hybridCandidates(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("retrieve %q: %w", query, err)
		}
		for _, c := range candidates {
			if prev, ok := best[c.Document.ID]; !ok || c.Score > prev.Score {
				best[c.Document.ID] = c
			}
		}
	}

	merged := make([]rerank.Candidate, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sortCandidates(merged)

	total := len(merged)
	limit := r.limit(opts)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	merged = r.maybeRerank(merged, opts)

	budget := opts.ContextBudget
	if budget <= 0 {
		budget = r.cfg.ContextBudget
	}
	merged = fitBudget(merged, budget)

	return buildContext(queries[0], merged, total, limit), nil
}

func (r *Retriever) limit(opts Options) int {
	if opts.Limit > 0 {
		return opts.Limit
	}
	return r.cfg.TopK
}

func (r *Retriever) minScore(opts Options) float64 {
	if opts.MinScore < 0 {
		return 0
	}
	if opts.MinScore > 0 {
		return opts.MinScore
	}
	return r.cfg.MinScore
}

func (r *Retriever) maybeRerank(candidates []rerank.Candidate, opts Options) []rerank.Candidate {
	if !opts.Rerank || r.reranker == nil {
		return candidates
	}
	return r.reranker.Rerank(candidates)
}

func (r *Retriever) embed(query string) ([]float32, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	resp, err := r.provider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return resp.Embedding.Values, nil
}

func (r *Retriever) semanticCandidates(ctx context.Context, query string, k int, opts Options) ([]rerank.Candidate, error) {
	vector, err := r.embed(query)
	if err != nil {
		return nil, err
	}

	results, err := r.index.Query(ctx, vector, k, opts.Category)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	minScore := r.minScore(opts)
	candidates := make([]rerank.Candidate, 0, len(results))
	for _, res := range results {
		score := 1 - res.Distance
		if score < minScore {
			continue
		}
		candidates = append(candidates, rerank.Candidate{Document: res.Document, Score: score})
	}
	return candidates, nil
}

// hybridCandidates fetches a widened candidate set twice in parallel,
// once scored by distance and once re-scored by keyword hits, then
// blends the two scores per document.
func (r *Retriever) hybridCandidates(ctx context.Context, query string, opts Options) ([]rerank.Candidate, error) {
	vector, err := r.embed(query)
	if err != nil {
		return nil, err
	}

	fetchK := r.limit(opts) * 2

	var wg sync.WaitGroup
	var semResults, kwResults []vectorstore.SearchResult
	var semErr, kwErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		semResults, semErr = r.index.Query(ctx, vector, fetchK, opts.Category)
	}()
	go func() {
		defer wg.Done()
		kwResults, kwErr = r.index.Query(ctx, vector, fetchK, opts.Category)
	}()
	wg.Wait()

	if semErr != nil {
		return nil, fmt.Errorf("semantic search: %w", semErr)
	}
	if kwErr != nil {
		return nil, fmt.Errorf("keyword search: %w", kwErr)
	}

	keywords := topic.Keywords(topic.Normalize(query))

	type blend struct {
		doc      store.Document
		semantic float64
		keyword  float64
	}
	merged := make(map[string]*blend, len(semResults))
	for _, res := range semResults {
		merged[res.Document.ID] = &blend{doc: res.Document, semantic: 1 - res.Distance}
	}
	for _, res := range kwResults {
		score := keywordScore(keywords, res.Document)
		if b, ok := merged[res.Document.ID]; ok {
			b.keyword = score
		} else {
			merged[res.Document.ID] = &blend{doc: res.Document, keyword: score}
		}
	}

	minScore := r.minScore(opts)
	candidates := make([]rerank.Candidate, 0, len(merged))
	for _, b := range merged {
		score := r.cfg.SemanticWeight*b.semantic + r.cfg.KeywordWeight*b.keyword
		if score < minScore {
			continue
		}
		candidates = append(candidates, rerank.Candidate{Document: b.doc, Score: score})
	}
	sortCandidates(candidates)
	return candidates, nil
}

// keywordScore is the fraction of query keywords present in the
// document's title and content.
func keywordScore(keywords []string, doc store.Document) float64 {
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(doc.Title + " " + doc.Content)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

func sortCandidates(candidates []rerank.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})
}

// fitBudget admits candidates from the top until their combined content
// length exceeds the budget, truncating the last admitted document.
func fitBudget(candidates []rerank.Candidate, budget int) []rerank.Candidate {
	if budget <= 0 {
		return candidates
	}

	out := make([]rerank.Candidate, 0, len(candidates))
	used := 0
	for _, c := range candidates {
		size := len(c.Document.Content)
		if used+size <= budget {
			out = append(out, c)
			used += size
			continue
		}
		remaining := budget - used
		if remaining > 0 {
			c.Document.Content = truncate(c.Document.Content, remaining)
			out = append(out, c)
		}
		break
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func buildContext(query string, candidates []rerank.Candidate, total, limit int) *store.RetrievedContext {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	docs := make([]store.Document, 0, len(candidates))
	scores := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		docs = append(docs, c.Document)
		scores = append(scores, c.Score)
	}

	return &store.RetrievedContext{
		Documents:       docs,
		RelevanceScores: scores,
		TotalFound:      total,
		Query:           query,
		RetrievedAt:     time.Now(),
	}
}
