package specification

import "gorm.io/gorm"

// BySource filters materials by their unique source label
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

// ByCategory filters by document category (textbook, question_pool, regulation)
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// ByStatus filters by indexing status (PENDING, INDEXED, FAILED)
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// TitleContains does a case-insensitive substring match on the title
type TitleContains struct {
	Query string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title ILIKE ?", "%"+s.Query+"%")
}
