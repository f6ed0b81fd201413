package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-examprep-be/internal/constant"
	"ai-examprep-be/internal/dto"
	"ai-examprep-be/internal/entity"
	"ai-examprep-be/internal/pkg/logger"
	"ai-examprep-be/internal/pkg/serverutils"
	"ai-examprep-be/internal/repository/specification"
	"ai-examprep-be/internal/repository/unitofwork"
	"ai-examprep-be/pkg/events"
	pktNats "ai-examprep-be/pkg/nats"
	"ai-examprep-be/pkg/vectorstore"

	"github.com/google/uuid"
)

type IMaterialService interface {
	Register(ctx context.Context, req *dto.RegisterMaterialRequest) (*dto.RegisterMaterialResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error)
	List(ctx context.Context, req *dto.ListMaterialsRequest) ([]*dto.MaterialResponse, error)
	Reindex(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type materialService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	vectorIndex      vectorstore.Store
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewMaterialService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	vectorIndex vectorstore.Store,
	eventPublisher *pktNats.Publisher,
	logger logger.ILogger,
) IMaterialService {
	return &materialService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		vectorIndex:      vectorIndex,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

// Register stores a new source material and queues it for indexing. The
// heavy chunk/embed work happens in the indexer consumer; registration
// itself only persists the raw text and publishes the ingest message.
func (s *materialService) Register(ctx context.Context, req *dto.RegisterMaterialRequest) (*dto.RegisterMaterialResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.SourceMaterialRepository().FindOne(ctx, specification.BySource{Source: req.Source})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("material with source %q already exists", req.Source)
	}

	material := entity.SourceMaterial{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Source:    req.Source,
		Chapter:   req.Chapter,
		Section:   req.Section,
		Status:    constant.MaterialStatusPending,
		CreatedAt: time.Now(),
	}

	if err := uow.SourceMaterialRepository().Create(ctx, &material); err != nil {
		return nil, err
	}

	if err := s.queueIndexing(ctx, material.Id); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewMaterialRegistered(material.Id, material.Source))
	s.logger.Info("material", "material registered", map[string]interface{}{
		"material_id": material.Id,
		"source":      material.Source,
		"category":    material.Category,
	})

	return &dto.RegisterMaterialResponse{
		Id:     material.Id,
		Status: material.Status,
	}, nil
}

func (s *materialService) Show(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	material, err := uow.SourceMaterialRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, nil
	}
	return toMaterialResponse(material), nil
}

func (s *materialService) List(ctx context.Context, req *dto.ListMaterialsRequest) ([]*dto.MaterialResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if req.Category != "" {
		specs = append(specs, specification.ByCategory{Category: req.Category})
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: req.Status})
	}
	if req.Query != "" {
		specs = append(specs, specification.TitleContains{Query: req.Query})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	materials, err := uow.SourceMaterialRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		responses = append(responses, toMaterialResponse(m))
	}
	return responses, nil
}

// Reindex resets a material to pending and queues it again. The consumer
// deletes the old chunks before inserting the fresh split.
func (s *materialService) Reindex(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	material, err := uow.SourceMaterialRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if material == nil {
		return fmt.Errorf("material %s not found", id)
	}

	material.Status = constant.MaterialStatusPending
	now := time.Now()
	material.UpdatedAt = &now
	if err := uow.SourceMaterialRepository().Update(ctx, material); err != nil {
		return err
	}

	return s.queueIndexing(ctx, material.Id)
}

// Delete removes the material and every chunk derived from it.
func (s *materialService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	material, err := uow.SourceMaterialRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if material == nil {
		return nil
	}

	if err := uow.SourceMaterialRepository().Delete(ctx, id); err != nil {
		return err
	}

	if err := s.vectorIndex.DeleteBySource(ctx, material.Source); err != nil {
		return fmt.Errorf("delete chunks for source %q: %w", material.Source, err)
	}

	s.publishEvent(ctx, events.NewMaterialDeleted(material.Id, material.Source))
	s.logger.Info("material", "material deleted", map[string]interface{}{
		"material_id": material.Id,
		"source":      material.Source,
	})
	return nil
}

func (s *materialService) queueIndexing(ctx context.Context, materialId uuid.UUID) error {
	payload := dto.IndexMaterialMessage{MaterialId: materialId}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, msgJson)
}

// publishEvent is best-effort; the bus being down never fails the request.
func (s *materialService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("material", "failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func toMaterialResponse(m *entity.SourceMaterial) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		Id:         m.Id,
		Title:      m.Title,
		Category:   m.Category,
		Source:     m.Source,
		Chapter:    m.Chapter,
		Section:    m.Section,
		Status:     m.Status,
		ChunkCount: m.ChunkCount,
		IndexedAt:  m.IndexedAt,
		CreatedAt:  m.CreatedAt,
	}
}
