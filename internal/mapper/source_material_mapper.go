package mapper

import (
	"time"

	"ai-examprep-be/internal/entity"
	"ai-examprep-be/internal/model"

	"gorm.io/gorm"
)

type SourceMaterialMapper struct{}

func NewSourceMaterialMapper() *SourceMaterialMapper {
	return &SourceMaterialMapper{}
}

func (m *SourceMaterialMapper) ToEntity(s *model.SourceMaterial) *entity.SourceMaterial {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.SourceMaterial{
		Id:         s.Id,
		Title:      s.Title,
		Content:    s.Content,
		Category:   s.Category,
		Source:     s.Source,
		Chapter:    s.Chapter,
		Section:    s.Section,
		Status:     s.Status,
		ChunkCount: s.ChunkCount,
		IndexedAt:  s.IndexedAt,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *SourceMaterialMapper) ToModel(e *entity.SourceMaterial) *model.SourceMaterial {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.SourceMaterial{
		Id:         e.Id,
		Title:      e.Title,
		Content:    e.Content,
		Category:   e.Category,
		Source:     e.Source,
		Chapter:    e.Chapter,
		Section:    e.Section,
		Status:     e.Status,
		ChunkCount: e.ChunkCount,
		IndexedAt:  e.IndexedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *SourceMaterialMapper) ToEntities(materials []*model.SourceMaterial) []*entity.SourceMaterial {
	entities := make([]*entity.SourceMaterial, len(materials))
	for i, s := range materials {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
