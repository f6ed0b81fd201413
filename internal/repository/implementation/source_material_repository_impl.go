package implementation

import (
	"context"
	"errors"

	"ai-examprep-be/internal/entity"
	"ai-examprep-be/internal/mapper"
	"ai-examprep-be/internal/model"
	"ai-examprep-be/internal/repository/contract"
	"ai-examprep-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceMaterialRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceMaterialMapper
}

func NewSourceMaterialRepository(db *gorm.DB) contract.SourceMaterialRepository {
	return &SourceMaterialRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceMaterialMapper(),
	}
}

func (r *SourceMaterialRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceMaterialRepositoryImpl) Create(ctx context.Context, material *entity.SourceMaterial) error {
	m := r.mapper.ToModel(material)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*material = *r.mapper.ToEntity(m)
	return nil
}

func (r *SourceMaterialRepositoryImpl) Update(ctx context.Context, material *entity.SourceMaterial) error {
	m := r.mapper.ToModel(material)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*material = *r.mapper.ToEntity(m)
	return nil
}

func (r *SourceMaterialRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SourceMaterial{}, id).Error
}

func (r *SourceMaterialRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SourceMaterial, error) {
	var m model.SourceMaterial
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SourceMaterialRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceMaterial, error) {
	var models []*model.SourceMaterial
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SourceMaterialRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SourceMaterial{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
