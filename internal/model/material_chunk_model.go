package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// MaterialChunk rows are immutable; reindexing a source deletes its rows
// and inserts fresh ones. Ids are deterministic (source label + chunk
// index) so a reindex produces the same ids for the same split.
type MaterialChunk struct {
	Id         string          `gorm:"type:varchar(255);primaryKey"`
	Title      string          `gorm:"type:varchar(500)"`
	Content    string          `gorm:"type:text"`
	Category   string          `gorm:"type:varchar(50);not null;index"`
	Source     string          `gorm:"type:varchar(255);not null;index"`
	Chapter    string          `gorm:"type:varchar(255)"`
	Section    string          `gorm:"type:varchar(255)"`
	Tags       datatypes.JSON  `gorm:"type:jsonb"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 and nomic-embed-text both use 768 dimensions
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	ChunkIndex int             `gorm:"default:0"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (MaterialChunk) TableName() string {
	return "material_chunks"
}
