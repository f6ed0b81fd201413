package rerank

import (
	"math"
	"sort"
	"time"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/store"
)

// Candidate is one scored retrieval hit flowing through the reranker.
type Candidate struct {
	Document store.Document
	Score    float64
}

// Reranker re-scores retrieval candidates with a weighted blend of the
// original retrieval score and four auxiliary signals: source
// authority, recency, source diversity and category preference. All
// weights come from configuration.
type Reranker struct {
	cfg config.RerankConfig
	now func() time.Time
}

func NewReranker(cfg config.RerankConfig) *Reranker {
	return &Reranker{cfg: cfg, now: time.Now}
}

// Rerank returns the candidates sorted descending by blended score. The
// set of documents never changes, only order and score.
func (r *Reranker) Rerank(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	sourceSeen := make(map[string]int, len(candidates))

	for i, c := range candidates {
		diversity := 1.0 / (1.0 + float64(sourceSeen[c.Document.Source]))
		sourceSeen[c.Document.Source]++

		blended := r.cfg.RetrievalWeight*c.Score +
			r.cfg.AuthorityWeight*r.authorityScore(c.Document) +
			r.cfg.RecencyWeight*r.recencyScore(c.Document.UpdatedAt) +
			r.cfg.DiversityWeight*diversity +
			r.cfg.TypeWeight*r.typeScore(c.Document.Category)

		out[i] = Candidate{Document: c.Document, Score: blended}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// authorityScore starts from the configured per-source weight, boosts
// regulatory material and adds a little for structural metadata.
func (r *Reranker) authorityScore(doc store.Document) float64 {
	base, ok := r.cfg.SourceAuthority[doc.Source]
	if !ok {
		base = 0.5
	}
	if doc.Category == constant.CategoryRegulation {
		base += r.cfg.RegulationBoost
	}
	base += r.cfg.MetadataRichness * float64(richness(doc))
	return math.Min(base, 1.2)
}

// richness counts the optional structural fields present on a document.
func richness(doc store.Document) int {
	n := 0
	if doc.Chapter != "" {
		n++
	}
	if doc.Section != "" {
		n++
	}
	if len(doc.Tags) > 0 {
		n++
	}
	if len(doc.Metadata) > 0 {
		n++
	}
	return n
}

// recencyScore decays exponentially with document age. The half-life is
// configured in days, roughly two years by default. Documents without a
// timestamp score neutral.
func (r *Reranker) recencyScore(updatedAt time.Time) float64 {
	if updatedAt.IsZero() {
		return 0.5
	}
	ageDays := r.now().Sub(updatedAt).Hours() / 24
	if ageDays <= 0 {
		return 1.0
	}
	return math.Exp(-math.Ln2 * ageDays / r.cfg.HalfLifeDays)
}

func (r *Reranker) typeScore(category string) float64 {
	if w, ok := r.cfg.TypePreference[category]; ok {
		return w
	}
	return 0.5
}

// Balance guarantees a minimum number of results per category before
// filling the remaining slots with the highest-scoring leftovers. The
// result is sorted descending by score.
func Balance(candidates []Candidate, minPerType, limit int) []Candidate {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	if minPerType <= 0 {
		return sorted[:limit]
	}

	var categories []string
	byCategory := make(map[string][]int)
	for i, c := range sorted {
		cat := c.Document.Category
		if _, ok := byCategory[cat]; !ok {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], i)
	}

	taken := make(map[int]bool, limit)
	var selected []Candidate

	// One candidate per category per round keeps every category
	// represented even when the limit is tight.
	for round := 0; round < minPerType && len(selected) < limit; round++ {
		for _, cat := range categories {
			if len(selected) == limit {
				break
			}
			queue := byCategory[cat]
			if round >= len(queue) {
				continue
			}
			idx := queue[round]
			taken[idx] = true
			selected = append(selected, sorted[idx])
		}
	}

	for i, c := range sorted {
		if len(selected) == limit {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		selected = append(selected, c)
	}

	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score > selected[j].Score })
	return selected
}

// CapPerSource drops candidates beyond the allowed count per source,
// keeping the existing order.
func CapPerSource(candidates []Candidate, maxPerSource int) []Candidate {
	if maxPerSource <= 0 {
		return candidates
	}

	counts := make(map[string]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.Document.Source] >= maxPerSource {
			continue
		}
		counts[c.Document.Source]++
		out = append(out, c)
	}
	return out
}
