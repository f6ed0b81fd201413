package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ai-examprep-be/pkg/store"
	"ai-examprep-be/pkg/vectorstore"
)

// MemoryStore is a brute-force cosine-distance store. It backs tests and
// the demo binary, and doubles as the reference implementation of the
// Store contract.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	docs      map[string]store.Document
}

var _ vectorstore.Store = &MemoryStore{}

// NewMemoryStore creates a store enforcing the given vector dimension.
// A dimension of 0 adopts the dimension of the first upserted document.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		docs:      make(map[string]store.Document),
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, docs []store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document without id")
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		if s.dimension == 0 {
			s.dimension = len(doc.Embedding)
		}
		if len(doc.Embedding) != s.dimension {
			return fmt.Errorf("document %s embedding dimension %d, index uses %d", doc.ID, len(doc.Embedding), s.dimension)
		}
		s.docs[doc.ID] = doc
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int, category string) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		if category != "" && doc.Category != category {
			continue
		}
		results = append(results, vectorstore.SearchResult{
			Document: doc,
			Distance: cosineDistance(vector, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance == results[j].Distance {
			return results[i].Document.ID < results[j].Document.ID
		}
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (s *MemoryStore) GetByIds(ctx context.Context, ids []string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

func (s *MemoryStore) DeleteBySource(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range s.docs {
		if doc.Source == source {
			delete(s.docs, id)
		}
	}
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// cosineDistance is 1 - cosine similarity, matching the pgvector <=>
// operator. Mismatched or zero vectors count as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
