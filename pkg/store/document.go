package store

import "time"

// Document is one retrievable unit of study material: a processed chunk
// of source text plus the structural metadata attached at indexing time.
// Documents are immutable once stored; updates are delete+reinsert.
type Document struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Category  string                 `json:"category"` // "textbook" | "question_pool" | "regulation"
	Source    string                 `json:"source"`
	Chapter   string                 `json:"chapter,omitempty"`
	Section   string                 `json:"section,omitempty"`
	Tags      []string               `json:"tags"`
	Embedding []float32              `json:"-"`
	Metadata  map[string]interface{} `json:"metadata"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// RetrievedContext is the outcome of a single retrieval call. Documents
// and RelevanceScores are parallel lists ordered best-first; scores are
// comparable within one call only, never across calls.
type RetrievedContext struct {
	Documents       []Document `json:"documents"`
	RelevanceScores []float64  `json:"relevance_scores"`
	TotalFound      int        `json:"total_found"`
	Query           string     `json:"query"`
	RetrievedAt     time.Time  `json:"retrieved_at"`
}

// ContentLength returns the summed content size in characters, the unit
// the retrieval context budget is measured in.
func (rc *RetrievedContext) ContentLength() int {
	total := 0
	for i := range rc.Documents {
		total += len(rc.Documents[i].Content)
	}
	return total
}
