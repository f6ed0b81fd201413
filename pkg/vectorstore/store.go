package vectorstore

import (
	"context"

	"ai-examprep-be/pkg/store"
)

// SearchResult pairs a document with its cosine distance from the query
// vector. Lower is closer; callers derive similarity as 1 - distance.
type SearchResult struct {
	Document store.Document
	Distance float64
}

// Store is the narrow adapter over an external vector index. A missing
// collection or table is a normal state (nothing indexed yet): Query,
// GetByIds and Count treat it as empty rather than failing.
type Store interface {
	// Upsert inserts or replaces documents. Every embedding must have
	// the dimension the index was created with.
	Upsert(ctx context.Context, docs []store.Document) error

	// Query returns the k nearest documents by cosine distance,
	// optionally restricted to one category ("" means no filter).
	Query(ctx context.Context, vector []float32, k int, category string) ([]SearchResult, error)

	// GetByIds returns the documents that exist among ids, in no
	// particular order. Missing ids are skipped.
	GetByIds(ctx context.Context, ids []string) ([]store.Document, error)

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// DeleteBySource removes every chunk that came from one source
	// label. Reindexing is modeled as DeleteBySource + Upsert.
	DeleteBySource(ctx context.Context, source string) error

	Count(ctx context.Context) (int64, error)

	Close() error
}
