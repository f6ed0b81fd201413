package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceMaterial struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string         `gorm:"type:varchar(255);not null"`
	Content    string         `gorm:"type:text"`
	Category   string         `gorm:"type:varchar(50);not null;index"`
	Source     string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Chapter    string         `gorm:"type:varchar(255)"`
	Section    string         `gorm:"type:varchar(255)"`
	Status     string         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ChunkCount int            `gorm:"default:0"`
	IndexedAt  *time.Time     `gorm:""`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (SourceMaterial) TableName() string {
	return "source_materials"
}
