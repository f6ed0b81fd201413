package specification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Specification is a composable query filter. Repositories apply any number
// of them onto the base query, so callers build lookups from small pieces
// instead of growing the repository interface per filter combination.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
