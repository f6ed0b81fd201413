package memory

import (
	"context"
	"testing"

	"ai-examprep-be/pkg/store"
)

func doc(id, category, source string, embedding []float32) store.Document {
	return store.Document{
		ID:        id,
		Title:     id,
		Content:   "content of " + id,
		Category:  category,
		Source:    source,
		Embedding: embedding,
	}
}

func TestQueryOrdersByDistance(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	err := s.Upsert(ctx, []store.Document{
		doc("far", "textbook", "src-a", []float32{0, 1}),
		doc("near", "textbook", "src-a", []float32{1, 0}),
		doc("mid", "textbook", "src-b", []float32{0.7, 0.7}),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Query(ctx, []float32{1, 0}, 3, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []string{"near", "mid", "far"}
	for i, want := range wantOrder {
		if results[i].Document.ID != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Document.ID, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not ascending at %d: %f < %f", i, results[i].Distance, results[i-1].Distance)
		}
	}
}

func TestQueryCategoryFilter(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	s.Upsert(ctx, []store.Document{
		doc("t1", "textbook", "src-a", []float32{1, 0}),
		doc("r1", "regulation", "src-b", []float32{1, 0}),
	})

	results, err := s.Query(ctx, []float32{1, 0}, 10, "regulation")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "r1" {
		t.Errorf("category filter failed: %+v", results)
	}
}

func TestQueryEmptyStoreReturnsNothing(t *testing.T) {
	s := NewMemoryStore(2)
	results, err := s.Query(context.Background(), []float32{1, 0}, 5, "")
	if err != nil {
		t.Fatalf("Query on empty store should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestUpsertEnforcesDimension(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	if err := s.Upsert(ctx, []store.Document{doc("a", "textbook", "s", []float32{1, 0, 0})}); err != nil {
		t.Fatalf("first upsert should adopt dimension: %v", err)
	}
	if err := s.Upsert(ctx, []store.Document{doc("b", "textbook", "s", []float32{1, 0})}); err == nil {
		t.Error("mismatched dimension should be rejected")
	}
	if err := s.Upsert(ctx, []store.Document{{ID: "c", Category: "textbook"}}); err == nil {
		t.Error("missing embedding should be rejected")
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	s.Upsert(ctx, []store.Document{doc("a", "textbook", "s", []float32{1, 0})})
	updated := doc("a", "regulation", "s", []float32{0, 1})
	s.Upsert(ctx, []store.Document{updated})

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	docs, _ := s.GetByIds(ctx, []string{"a"})
	if len(docs) != 1 || docs[0].Category != "regulation" {
		t.Errorf("upsert did not replace: %+v", docs)
	}
}

func TestDeleteAndDeleteBySource(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	s.Upsert(ctx, []store.Document{
		doc("a-0", "textbook", "src-a", []float32{1, 0}),
		doc("a-1", "textbook", "src-a", []float32{0, 1}),
		doc("b-0", "textbook", "src-b", []float32{1, 1}),
	})

	if err := s.Delete(ctx, []string{"a-0", "missing"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	count, _ := s.Count(ctx)
	if count != 2 {
		t.Errorf("count after delete = %d, want 2", count)
	}

	if err := s.DeleteBySource(ctx, "src-a"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	count, _ = s.Count(ctx)
	if count != 1 {
		t.Errorf("count after DeleteBySource = %d, want 1", count)
	}
	docs, _ := s.GetByIds(ctx, []string{"b-0"})
	if len(docs) != 1 {
		t.Errorf("src-b doc should survive")
	}
}
