package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterMaterialRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"required,oneof=textbook question_pool regulation"`
	Source   string `json:"source" validate:"required"`
	Chapter  string `json:"chapter"`
	Section  string `json:"section"`
}

type RegisterMaterialResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type MaterialResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Source     string     `json:"source"`
	Chapter    string     `json:"chapter,omitempty"`
	Section    string     `json:"section,omitempty"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ListMaterialsRequest struct {
	Category string `json:"category" validate:"omitempty,oneof=textbook question_pool regulation"`
	Status   string `json:"status" validate:"omitempty,oneof=PENDING INDEXED FAILED"`
	Query    string `json:"query" validate:"omitempty,max=200"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `json:"offset" validate:"omitempty,min=0"`
}

// IndexMaterialMessage is the payload published to the ingest topic when a
// material needs (re)indexing.
type IndexMaterialMessage struct {
	MaterialId uuid.UUID `json:"material_id"`
}
