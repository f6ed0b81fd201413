package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-examprep-be/internal/constant"
	"ai-examprep-be/pkg/store"
)

// Input is one raw source document before processing.
type Input struct {
	Title    string
	Content  string
	Category string
	Source   string
	Chapter  string
	Section  string
	Metadata map[string]interface{}
}

// ItemError reports one rejected input within a batch.
type ItemError struct {
	Source string
	Index  int
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("input %d (%s): %v", e.Index, e.Source, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Processor splits raw source text into overlapping, sentence-aligned
// chunks and attaches structural metadata. question_pool material and
// short inputs stay whole: a past exam item split mid-question is
// useless for retrieval.
type Processor struct {
	chunkSize    int
	minChunkSize int
	overlap      int
	splitter     *regexp.Regexp
}

func NewProcessor(chunkSize, minChunkSize, overlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if minChunkSize < 0 {
		minChunkSize = 0
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Processor{
		chunkSize:    chunkSize,
		minChunkSize: minChunkSize,
		overlap:      overlap,
		splitter:     regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Process turns one input into documents. The returned documents carry
// no embedding yet; the indexer fills that in.
func (p *Processor) Process(input Input) ([]store.Document, error) {
	if err := p.validate(input); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(input.Content)

	var texts []string
	if input.Category == constant.CategoryQuestionPool || len(content) <= p.chunkSize {
		texts = []string{content}
	} else {
		texts = p.splitSentenceChunks(content)
	}

	maxSize := 2 * p.chunkSize
	for _, text := range texts {
		if len(text) > maxSize {
			return nil, fmt.Errorf("chunk of %d chars exceeds maximum %d", len(text), maxSize)
		}
	}

	now := time.Now()
	docs := make([]store.Document, 0, len(texts))
	for i, text := range texts {
		metadata := make(map[string]interface{}, len(input.Metadata)+1)
		for k, v := range input.Metadata {
			metadata[k] = v
		}
		metadata["chunk_index"] = i

		docs = append(docs, store.Document{
			ID:        ChunkID(input.Source, i),
			Title:     input.Title,
			Content:   text,
			Category:  input.Category,
			Source:    input.Source,
			Chapter:   input.Chapter,
			Section:   input.Section,
			Tags:      ExtractTags(text),
			Metadata:  metadata,
			UpdatedAt: now,
		})
	}
	return docs, nil
}

// ProcessBatch processes every input, collecting per-item failures. One
// bad input never aborts the batch.
func (p *Processor) ProcessBatch(inputs []Input) ([]store.Document, []ItemError) {
	var docs []store.Document
	var failures []ItemError

	for i, input := range inputs {
		processed, err := p.Process(input)
		if err != nil {
			failures = append(failures, ItemError{Source: input.Source, Index: i, Err: err})
			continue
		}
		docs = append(docs, processed...)
	}
	return docs, failures
}

func (p *Processor) validate(input Input) error {
	if input.Source == "" {
		return fmt.Errorf("source label is required")
	}
	if !constant.IsValidCategory(input.Category) {
		return fmt.Errorf("unknown category %q", input.Category)
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return fmt.Errorf("content is empty")
	}
	if len(content) < p.minChunkSize {
		return fmt.Errorf("content of %d chars is below minimum chunk size %d", len(content), p.minChunkSize)
	}
	return nil
}

// splitSentenceChunks accumulates sentences into chunks of at most
// chunkSize chars. Each new chunk is seeded with the trailing sentences
// of the previous one, up to the overlap budget. A chunk below the
// minimum size is not emitted; its sentences roll into the next chunk so
// no text is lost.
func (p *Processor) splitSentenceChunks(content string) []string {
	sentences := p.splitSentences(content)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		chunks = append(chunks, strings.Join(current, " "))
	}

	for _, sentence := range sentences {
		addition := len(sentence)
		if currentLen > 0 {
			addition++ // joining space
		}

		if currentLen > 0 && currentLen+addition > p.chunkSize {
			if currentLen < p.minChunkSize {
				// Too small to stand alone; keep accumulating.
				current = append(current, sentence)
				currentLen += addition
				continue
			}
			flush()
			current = trailingSentences(current, p.overlap)
			current = append(current, sentence)
			currentLen = len(strings.Join(current, " "))
			continue
		}

		current = append(current, sentence)
		currentLen += addition
	}

	if currentLen > 0 {
		// The tail is emitted even below the minimum so the source text
		// stays fully covered.
		flush()
	}
	return chunks
}

// splitSentences returns the content split at sentence punctuation. Any
// trailing text without closing punctuation is kept as a final sentence.
func (p *Processor) splitSentences(content string) []string {
	matches := p.splitter.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return []string{strings.TrimSpace(content)}
	}

	sentences := make([]string, 0, len(matches)+1)
	end := 0
	for _, m := range matches {
		s := strings.TrimSpace(content[m[0]:m[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		end = m[1]
	}
	if tail := strings.TrimSpace(content[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// trailingSentences returns the longest run of trailing sentences whose
// joined length stays within the overlap budget.
func trailingSentences(sentences []string, overlap int) []string {
	if overlap <= 0 || len(sentences) == 0 {
		return nil
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		addition := len(sentences[i])
		if total > 0 {
			addition++
		}
		if total+addition > overlap {
			break
		}
		total += addition
		start = i
	}

	if start == len(sentences) {
		return nil
	}
	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail
}

// ChunkID derives a deterministic document id from the source label and
// chunk index, so reindexing the same source overwrites the same rows.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s-%d", slugify(source), index)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExtractTags scans the text for the fixed domain vocabulary and adds a
// complexity tag inferred from lexical cues.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	for _, term := range constant.TagVocabulary {
		if strings.Contains(lower, term) {
			tags = append(tags, term)
		}
	}

	tags = append(tags, complexityTag(lower))
	return tags
}

func complexityTag(lower string) string {
	for _, cue := range constant.AdvancedCues {
		if strings.Contains(lower, cue) {
			return constant.ComplexityAdvanced
		}
	}
	for _, cue := range constant.BasicCues {
		if strings.Contains(lower, cue) {
			return constant.ComplexityBasic
		}
	}
	return constant.ComplexityIntermediate
}
