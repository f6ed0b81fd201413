package chunking

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-examprep-be/internal/constant"
)

func buildSentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Sentence number %03d covers bond yield and coupon payments in market practice. ", i)
	}
	return strings.TrimSpace(b.String())
}

func TestProcessShortInputSingleChunk(t *testing.T) {
	p := NewProcessor(1500, 100, 200)

	docs, err := p.Process(Input{
		Title:    "Bond Basics",
		Content:  "A bond is a debt security. The issuer pays the holder a coupon until maturity.",
		Category: constant.CategoryTextbook,
		Source:   "textbook_bonds_ch1",
		Chapter:  "Chapter 1",
		Metadata: map[string]interface{}{"year": 2024},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "textbook-bonds-ch1-0", doc.ID)
	assert.Equal(t, "Bond Basics", doc.Title)
	assert.Equal(t, constant.CategoryTextbook, doc.Category)
	assert.Equal(t, "Chapter 1", doc.Chapter)
	assert.Equal(t, 2024, doc.Metadata["year"])
	assert.Equal(t, 0, doc.Metadata["chunk_index"])
	assert.Empty(t, doc.Embedding)
	assert.False(t, doc.UpdatedAt.IsZero())
}

func TestProcessQuestionPoolStaysWhole(t *testing.T) {
	p := NewProcessor(300, 50, 80)

	content := buildSentences(6) // well over the chunk size
	require.Greater(t, len(content), 300)

	docs, err := p.Process(Input{
		Content:  content,
		Category: constant.CategoryQuestionPool,
		Source:   "exam_2023_q12",
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, content, docs[0].Content)
}

func TestProcessSplitsLongTextWithOverlap(t *testing.T) {
	p := NewProcessor(300, 50, 80)

	docs, err := p.Process(Input{
		Content:  buildSentences(20),
		Category: constant.CategoryTextbook,
		Source:   "textbook_bonds_ch2",
	})
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)

	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("textbook-bonds-ch2-%d", i), doc.ID)
		assert.LessOrEqual(t, len(doc.Content), 300)
		if i < len(docs)-1 {
			assert.GreaterOrEqual(t, len(doc.Content), 50)
		}
		assert.Equal(t, i, doc.Metadata["chunk_index"])
	}

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(docs); i++ {
		first := docs[i].Content
		if dot := strings.Index(first, "."); dot >= 0 {
			first = first[:dot+1]
		}
		assert.True(t, strings.HasSuffix(docs[i-1].Content, first),
			"chunk %d does not overlap chunk %d", i, i-1)
	}
}

func TestProcessCoversSourceText(t *testing.T) {
	p := NewProcessor(300, 50, 80)

	// Trailing fragment without closing punctuation must survive chunking.
	content := buildSentences(15) + " Trailing fragment without punctuation"

	docs, err := p.Process(Input{
		Content:  content,
		Category: constant.CategoryTextbook,
		Source:   "textbook_bonds_ch3",
	})
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)

	type span struct{ start, end int }
	var spans []span
	for _, doc := range docs {
		idx := strings.Index(content, doc.Content)
		require.GreaterOrEqual(t, idx, 0, "chunk text not found in source: %q", doc.Content)
		spans = append(spans, span{idx, idx + len(doc.Content)})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	covered := spans[0]
	assert.Equal(t, 0, covered.start)
	for _, s := range spans[1:] {
		require.LessOrEqual(t, s.start, covered.end, "gap in coverage before offset %d", s.start)
		if s.end > covered.end {
			covered.end = s.end
		}
	}
	assert.Equal(t, len(content), covered.end)
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	p := NewProcessor(300, 50, 80)

	tests := []struct {
		name    string
		input   Input
		wantErr string
	}{
		{
			name:    "missing source",
			input:   Input{Content: buildSentences(2), Category: constant.CategoryTextbook},
			wantErr: "source label",
		},
		{
			name:    "unknown category",
			input:   Input{Content: buildSentences(2), Category: "novel", Source: "s1"},
			wantErr: "unknown category",
		},
		{
			name:    "empty content",
			input:   Input{Content: "   ", Category: constant.CategoryTextbook, Source: "s2"},
			wantErr: "empty",
		},
		{
			name:    "content below minimum",
			input:   Input{Content: "Too short.", Category: constant.CategoryTextbook, Source: "s3"},
			wantErr: "below minimum",
		},
		{
			name: "oversized unbreakable content",
			input: Input{
				Content:  strings.Repeat("x", 700),
				Category: constant.CategoryTextbook,
				Source:   "s4",
			},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := p.Process(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, docs)
		})
	}
}

func TestProcessBatchCollectsFailures(t *testing.T) {
	p := NewProcessor(300, 50, 80)

	inputs := []Input{
		{Content: buildSentences(3), Category: constant.CategoryTextbook, Source: "good_one"},
		{Content: "", Category: constant.CategoryTextbook, Source: "bad_one"},
		{Content: buildSentences(3), Category: constant.CategoryRegulation, Source: "good_two"},
	}

	docs, failures := p.ProcessBatch(inputs)

	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "bad_one", failures[0].Source)
	assert.Contains(t, failures[0].Error(), "empty")

	require.NotEmpty(t, docs)
	for _, doc := range docs {
		assert.NotEqual(t, "bad_one", doc.Source)
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantTags       []string
		wantComplexity string
	}{
		{
			name:           "domain terms with advanced cue",
			text:           "Duration and convexity measure a bond's sensitivity to yield changes.",
			wantTags:       []string{"bond", "yield", "duration"},
			wantComplexity: constant.ComplexityAdvanced,
		},
		{
			name:           "basic cue",
			text:           "This chapter is an introduction to stock dividends.",
			wantTags:       []string{"stock", "dividend"},
			wantComplexity: constant.ComplexityBasic,
		},
		{
			name:           "no cue defaults to intermediate",
			text:           "The coupon is paid to the holder at maturity.",
			wantTags:       []string{"coupon", "maturity"},
			wantComplexity: constant.ComplexityIntermediate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := ExtractTags(tt.text)
			for _, want := range tt.wantTags {
				assert.Contains(t, tags, want)
			}
			assert.Contains(t, tags, tt.wantComplexity)
		})
	}
}

func TestChunkIDIsDeterministic(t *testing.T) {
	assert.Equal(t, "textbook-bonds-ch-3-2", ChunkID("Textbook Bonds Ch.3", 2))
	assert.Equal(t, ChunkID("exam 2023", 0), ChunkID("exam 2023", 0))
}
