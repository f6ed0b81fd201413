package contract

import (
	"context"

	"ai-examprep-be/internal/entity"
	"ai-examprep-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SourceMaterialRepository interface {
	Create(ctx context.Context, material *entity.SourceMaterial) error
	Update(ctx context.Context, material *entity.SourceMaterial) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SourceMaterial, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceMaterial, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
