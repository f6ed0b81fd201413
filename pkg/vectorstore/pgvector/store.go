package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ai-examprep-be/internal/mapper"
	"ai-examprep-be/internal/model"
	"ai-examprep-be/pkg/store"
	"ai-examprep-be/pkg/vectorstore"
)

// SQLSTATE for "relation does not exist". An un-created chunk table just
// means nothing has been indexed yet.
const undefinedTableCode = "42P01"

type PgVectorStore struct {
	db     *gorm.DB
	mapper *mapper.MaterialChunkMapper
}

var _ vectorstore.Store = &PgVectorStore{}

func NewPgVectorStore(db *gorm.DB) *PgVectorStore {
	return &PgVectorStore{
		db:     db,
		mapper: mapper.NewMaterialChunkMapper(),
	}
}

func (s *PgVectorStore) Upsert(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	models := make([]*model.MaterialChunk, len(docs))
	for i := range docs {
		if docs[i].ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		models[i] = s.mapper.ToModel(&docs[i], i)
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(models, 100).Error
}

func (s *PgVectorStore) Query(ctx context.Context, vector []float32, k int, category string) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	// pgvector cosine distance: embedding <=> vector. Similarity is
	// derived by the caller as 1 - distance.
	type result struct {
		model.MaterialChunk
		Distance float64
	}
	var results []result

	queryVector := pgv.NewVector(vector)

	query := s.db.WithContext(ctx).
		Table("material_chunks").
		Select("material_chunks.*, embedding <=> ? as distance", queryVector)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	err := query.Order("distance ASC").Limit(k).Scan(&results).Error
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, err
	}

	searchResults := make([]vectorstore.SearchResult, len(results))
	for i, res := range results {
		searchResults[i] = vectorstore.SearchResult{
			Document: s.mapper.ToDocument(&res.MaterialChunk),
			Distance: res.Distance,
		}
	}
	return searchResults, nil
}

func (s *PgVectorStore) GetByIds(ctx context.Context, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []*model.MaterialChunk
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&models).Error
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, err
	}

	return s.mapper.ToDocuments(models), nil
}

func (s *PgVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.MaterialChunk{}).Error
	if err != nil && !isUndefinedTable(err) {
		return err
	}
	return nil
}

func (s *PgVectorStore) DeleteBySource(ctx context.Context, source string) error {
	err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Delete(&model.MaterialChunk{}).Error
	if err != nil && !isUndefinedTable(err) {
		return err
	}
	return nil
}

func (s *PgVectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.MaterialChunk{}).
		Count(&count).Error
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *PgVectorStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}
