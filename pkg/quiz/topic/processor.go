package topic

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/embedding"
)

// Validation methods, in falling order of confidence.
const (
	MethodSubject   = "subject"
	MethodSynonym   = "synonym"
	MethodEmbedding = "embedding"
	MethodKeyword   = "keyword"
)

// Result is the outcome of validating a free-text topic.
type Result struct {
	IsValid         bool     `json:"is_valid"`
	NormalizedTopic string   `json:"normalized_topic"`
	MatchedSubject  string   `json:"matched_subject,omitempty"`
	Method          string   `json:"method,omitempty"`
	Confidence      float64  `json:"confidence"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// Processor validates topics against the curated domain vocabulary and
// expands validated topics into semantic query variants.
//
// Validation runs a three-step chain: known subjects and synonyms
// first, then embedding similarity against the anchor phrases, then a
// keyword-overlap heuristic when the embedding call itself fails.
type Processor struct {
	provider       embedding.EmbeddingProvider
	anchorMinScore float64

	mu         sync.Mutex
	anchorVecs [][]float32
}

func NewProcessor(provider embedding.EmbeddingProvider, anchorMinScore float64) *Processor {
	return &Processor{
		provider:       provider,
		anchorMinScore: anchorMinScore,
	}
}

var (
	punctPattern = regexp.MustCompile(`[^a-z0-9\s-]`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, strips punctuation except hyphens and collapses
// whitespace.
func Normalize(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	t = punctPattern.ReplaceAllString(t, "")
	t = spacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Validate never returns an error: an unusable topic is a result, not a
// failure, and embedding trouble degrades to the keyword heuristic.
func (p *Processor) Validate(topic string) *Result {
	normalized := Normalize(topic)
	if len(normalized) < 2 {
		return &Result{IsValid: false, NormalizedTopic: normalized}
	}

	if subject, method, confidence, ok := matchSubject(normalized); ok {
		return &Result{
			IsValid:         true,
			NormalizedTopic: normalized,
			MatchedSubject:  subject,
			Method:          method,
			Confidence:      confidence,
		}
	}

	if similarity, err := p.anchorSimilarity(normalized); err == nil {
		if similarity >= p.anchorMinScore {
			return &Result{
				IsValid:         true,
				NormalizedTopic: normalized,
				Method:          MethodEmbedding,
				Confidence:      similarity,
			}
		}
		return &Result{
			IsValid:         false,
			NormalizedTopic: normalized,
			Suggestions:     Suggest(normalized, 5),
		}
	}

	// Embedding unavailable; fall back to keyword overlap.
	if overlapsDomainVocabulary(normalized) {
		return &Result{
			IsValid:         true,
			NormalizedTopic: normalized,
			Method:          MethodKeyword,
			Confidence:      0.5,
		}
	}

	return &Result{
		IsValid:         false,
		NormalizedTopic: normalized,
		Suggestions:     Suggest(normalized, 5),
	}
}

// matchSubject checks the normalized topic against the known subjects
// and their synonyms, including partial overlap in either direction.
func matchSubject(normalized string) (subject, method string, confidence float64, ok bool) {
	for _, s := range constant.KnownSubjects {
		if normalized == s {
			return s, MethodSubject, 1.0, true
		}
	}
	for _, s := range constant.KnownSubjects {
		if strings.Contains(normalized, s) || strings.Contains(s, normalized) {
			return s, MethodSubject, 0.9, true
		}
	}
	for _, s := range constant.KnownSubjects {
		for _, syn := range constant.SynonymTable[s] {
			if normalized == syn || strings.Contains(normalized, syn) || strings.Contains(syn, normalized) {
				return s, MethodSynonym, 0.85, true
			}
		}
	}
	return "", "", 0, false
}

// anchorSimilarity embeds the topic and returns its best cosine
// similarity against the anchor phrases. Anchor vectors are cached on
// first success; a failed warm-up is retried on the next call.
func (p *Processor) anchorSimilarity(normalized string) (float64, error) {
	anchors, err := p.anchorVectors()
	if err != nil {
		return 0, err
	}

	resp, err := p.provider.Generate(normalized, embedding.TaskSemanticSimilarity)
	if err != nil {
		return 0, err
	}

	best := 0.0
	for _, anchor := range anchors {
		if sim := cosineSimilarity(resp.Embedding.Values, anchor); sim > best {
			best = sim
		}
	}
	return best, nil
}

func (p *Processor) anchorVectors() ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.anchorVecs != nil {
		return p.anchorVecs, nil
	}

	vecs := make([][]float32, 0, len(constant.AnchorPhrases))
	for _, phrase := range constant.AnchorPhrases {
		resp, err := p.provider.Generate(phrase, embedding.TaskSemanticSimilarity)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, resp.Embedding.Values)
	}
	p.anchorVecs = vecs
	return p.anchorVecs, nil
}

func overlapsDomainVocabulary(normalized string) bool {
	for _, kw := range Keywords(normalized) {
		for _, term := range constant.TagVocabulary {
			if kw == term || strings.Contains(term, kw) || strings.Contains(kw, term) {
				return true
			}
		}
	}
	return false
}

// Suggest returns up to limit known subjects sharing keywords with the
// topic, best match first.
func Suggest(normalized string, limit int) []string {
	keywords := Keywords(normalized)
	if len(keywords) == 0 {
		return nil
	}

	type scored struct {
		subject string
		hits    int
	}
	var ranked []scored
	for _, s := range constant.KnownSubjects {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(s, kw) || strings.Contains(kw, s) {
				hits++
			}
		}
		if hits > 0 {
			ranked = append(ranked, scored{subject: s, hits: hits})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].hits > ranked[j].hits })

	suggestions := make([]string, 0, limit)
	for _, r := range ranked {
		if len(suggestions) == limit {
			break
		}
		suggestions = append(suggestions, r.subject)
	}
	return suggestions
}

// ExpandQueries turns a validated topic into its semantic query
// variants: the topic itself, synonym substitutions, single keywords
// and pairwise keyword combinations, deduplicated in that order.
func ExpandQueries(normalized string) []string {
	queries := []string{normalized}

	for _, s := range constant.KnownSubjects {
		if !strings.Contains(normalized, s) {
			continue
		}
		for _, syn := range constant.SynonymTable[s] {
			queries = append(queries, strings.Replace(normalized, s, syn, 1))
		}
	}

	keywords := Keywords(normalized)
	queries = append(queries, keywords...)
	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords); j++ {
			queries = append(queries, keywords[i]+" "+keywords[j])
		}
	}

	seen := make(map[string]bool, len(queries))
	deduped := queries[:0]
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		deduped = append(deduped, q)
	}
	return deduped
}

// Keywords extracts the content words of a normalized topic, dropping
// stop words and fragments under 3 characters.
func Keywords(normalized string) []string {
	fields := strings.Fields(normalized)
	keywords := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) < 3 || constant.StopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
