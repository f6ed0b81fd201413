package mapper

import (
	"encoding/json"

	"ai-examprep-be/internal/model"
	"ai-examprep-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// MaterialChunkMapper converts between the gorm row and the retrieval
// document shape. Tags and metadata travel as jsonb.
type MaterialChunkMapper struct{}

func NewMaterialChunkMapper() *MaterialChunkMapper {
	return &MaterialChunkMapper{}
}

func (m *MaterialChunkMapper) ToModel(doc *store.Document, chunkIndex int) *model.MaterialChunk {
	if doc == nil {
		return nil
	}

	var tags datatypes.JSON
	if b, err := json.Marshal(doc.Tags); err == nil {
		tags = datatypes.JSON(b)
	}

	var metadata datatypes.JSON
	if b, err := json.Marshal(doc.Metadata); err == nil {
		metadata = datatypes.JSON(b)
	}

	return &model.MaterialChunk{
		Id:         doc.ID,
		Title:      doc.Title,
		Content:    doc.Content,
		Category:   doc.Category,
		Source:     doc.Source,
		Chapter:    doc.Chapter,
		Section:    doc.Section,
		Tags:       tags,
		Embedding:  pgvector.NewVector(doc.Embedding),
		Metadata:   metadata,
		ChunkIndex: chunkIndex,
	}
}

func (m *MaterialChunkMapper) ToDocument(c *model.MaterialChunk) store.Document {
	var tags []string
	if len(c.Tags) > 0 {
		_ = json.Unmarshal(c.Tags, &tags)
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return store.Document{
		ID:        c.Id,
		Title:     c.Title,
		Content:   c.Content,
		Category:  c.Category,
		Source:    c.Source,
		Chapter:   c.Chapter,
		Section:   c.Section,
		Tags:      tags,
		Embedding: c.Embedding.Slice(),
		Metadata:  metadata,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *MaterialChunkMapper) ToDocuments(chunks []*model.MaterialChunk) []store.Document {
	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = m.ToDocument(c)
	}
	return docs
}
