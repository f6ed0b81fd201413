package rerank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/store"
)

func testConfig() config.RerankConfig {
	return config.RerankConfig{
		RetrievalWeight: 0.5,
		AuthorityWeight: 0.2,
		RecencyWeight:   0.1,
		DiversityWeight: 0.1,
		TypeWeight:      0.1,
		HalfLifeDays:    730,
		MaxPerSource:    3,
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
		RegulationBoost:  0.1,
		MetadataRichness: 0.05,
	}
}

func candidate(id, source, category string, score float64, updatedAt time.Time) Candidate {
	return Candidate{
		Document: store.Document{
			ID:        id,
			Source:    source,
			Category:  category,
			UpdatedAt: updatedAt,
		},
		Score: score,
	}
}

func TestRerankPreservesDocumentSet(t *testing.T) {
	r := NewReranker(testConfig())
	now := time.Now()

	in := []Candidate{
		candidate("d1", "licensed_textbook", constant.CategoryTextbook, 0.4, now),
		candidate("d2", "practice_exams", constant.CategoryQuestionPool, 0.9, now),
		candidate("d3", "regulatory_notice", constant.CategoryRegulation, 0.6, now),
	}

	out := r.Rerank(in)
	require.Len(t, out, len(in))

	ids := map[string]bool{}
	for _, c := range out {
		ids[c.Document.ID] = true
	}
	assert.Equal(t, map[string]bool{"d1": true, "d2": true, "d3": true}, ids)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestRerankSingleElement(t *testing.T) {
	r := NewReranker(testConfig())

	in := []Candidate{candidate("only", "licensed_textbook", constant.CategoryTextbook, 0.7, time.Now())}
	out := r.Rerank(in)

	require.Len(t, out, 1)
	assert.Equal(t, "only", out[0].Document.ID)
}

func TestRerankAuthorityOutweighsType(t *testing.T) {
	r := NewReranker(testConfig())
	now := time.Now()

	out := r.Rerank([]Candidate{
		candidate("exam", "practice_exams", constant.CategoryTextbook, 0.5, now),
		candidate("notice", "regulatory_notice", constant.CategoryRegulation, 0.5, now),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "notice", out[0].Document.ID)
}

func TestRerankPrefersRecentDocuments(t *testing.T) {
	r := NewReranker(testConfig())
	now := time.Now()

	// The stale document comes first so it also wins the diversity
	// signal; recency still has to dominate.
	out := r.Rerank([]Candidate{
		candidate("stale", "licensed_textbook", constant.CategoryTextbook, 0.5, now.AddDate(-4, 0, 0)),
		candidate("fresh", "licensed_textbook", constant.CategoryTextbook, 0.5, now),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "fresh", out[0].Document.ID)
}

func TestRerankUnknownSourceScoresNeutral(t *testing.T) {
	r := NewReranker(testConfig())
	now := time.Now()

	out := r.Rerank([]Candidate{
		candidate("known", "official_curriculum", constant.CategoryTextbook, 0.5, now),
		candidate("unknown", "random_blog", constant.CategoryTextbook, 0.5, now),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "known", out[0].Document.ID)
}

func TestBalanceGuaranteesEachCategory(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		candidate("t1", "s1", constant.CategoryTextbook, 0.9, now),
		candidate("t2", "s2", constant.CategoryTextbook, 0.8, now),
		candidate("t3", "s3", constant.CategoryTextbook, 0.7, now),
		candidate("q1", "s4", constant.CategoryQuestionPool, 0.2, now),
		candidate("r1", "s5", constant.CategoryRegulation, 0.1, now),
	}

	out := Balance(candidates, 1, 3)
	require.Len(t, out, 3)

	categories := map[string]bool{}
	for _, c := range out {
		categories[c.Document.Category] = true
	}
	assert.True(t, categories[constant.CategoryTextbook])
	assert.True(t, categories[constant.CategoryQuestionPool])
	assert.True(t, categories[constant.CategoryRegulation])
}

func TestBalanceFillsRemainingByScore(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		candidate("t1", "s1", constant.CategoryTextbook, 0.9, now),
		candidate("t2", "s2", constant.CategoryTextbook, 0.8, now),
		candidate("q1", "s3", constant.CategoryQuestionPool, 0.2, now),
		candidate("r1", "s4", constant.CategoryRegulation, 0.1, now),
		candidate("t3", "s5", constant.CategoryTextbook, 0.05, now),
	}

	out := Balance(candidates, 1, 4)
	require.Len(t, out, 4)

	ids := map[string]bool{}
	for _, c := range out {
		ids[c.Document.ID] = true
	}
	assert.True(t, ids["t1"])
	assert.True(t, ids["t2"], "leftover slot should go to the next best score")
	assert.True(t, ids["q1"])
	assert.True(t, ids["r1"])

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestCapPerSource(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		candidate("a1", "s1", constant.CategoryTextbook, 0.9, now),
		candidate("a2", "s1", constant.CategoryTextbook, 0.8, now),
		candidate("a3", "s1", constant.CategoryTextbook, 0.7, now),
		candidate("b1", "s2", constant.CategoryTextbook, 0.6, now),
	}

	out := CapPerSource(candidates, 2)
	require.Len(t, out, 3)
	assert.Equal(t, "a1", out[0].Document.ID)
	assert.Equal(t, "a2", out[1].Document.ID)
	assert.Equal(t, "b1", out[2].Document.ID)
}
