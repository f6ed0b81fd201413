package entity

import (
	"time"

	"github.com/google/uuid"
)

type SourceMaterial struct {
	Id         uuid.UUID
	Title      string
	Content    string
	Category   string
	Source     string
	Chapter    string
	Section    string
	Status     string
	ChunkCount int
	IndexedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
