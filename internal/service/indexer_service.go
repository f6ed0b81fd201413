package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-examprep-be/internal/constant"
	"ai-examprep-be/internal/dto"
	"ai-examprep-be/internal/entity"
	"ai-examprep-be/internal/pkg/logger"
	"ai-examprep-be/internal/repository/specification"
	"ai-examprep-be/internal/repository/unitofwork"
	"ai-examprep-be/pkg/chunking"
	"ai-examprep-be/pkg/embedding"
	"ai-examprep-be/pkg/events"
	pktNats "ai-examprep-be/pkg/nats"
	"ai-examprep-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IIndexerService consumes ingest messages and runs the chunk, embed and
// upsert pipeline for one material per message.
type IIndexerService interface {
	Consume(ctx context.Context) error
}

type indexerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	processor         *chunking.Processor
	embeddingProvider embedding.EmbeddingProvider
	vectorIndex       vectorstore.Store
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	processor *chunking.Processor,
	embeddingProvider embedding.EmbeddingProvider,
	vectorIndex vectorstore.Store,
	eventPublisher *pktNats.Publisher,
	logger logger.ILogger,
) IIndexerService {
	return &indexerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		processor:         processor,
		embeddingProvider: embeddingProvider,
		vectorIndex:       vectorIndex,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

func (is *indexerService) Consume(ctx context.Context) error {
	messages, err := is.pubSub.Subscribe(ctx, is.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			is.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (is *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexMaterialMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		is.logger.Error("indexer", "failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // poison message, retrying cannot help
		return
	}

	is.logger.Info("indexer", "indexing material", map[string]interface{}{
		"material_id": payload.MaterialId,
	})

	uow := is.uowFactory.NewUnitOfWork(ctx)

	material, err := uow.SourceMaterialRepository().FindOne(ctx, specification.ByID{ID: payload.MaterialId})
	if err != nil {
		is.logger.Error("indexer", "failed to load material", map[string]interface{}{
			"material_id": payload.MaterialId,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}
	if material == nil {
		is.logger.Warn("indexer", "material vanished before indexing", map[string]interface{}{
			"material_id": payload.MaterialId,
		})
		msg.Ack() // deleted in the meantime
		return
	}

	docs, err := is.processor.Process(chunking.Input{
		Title:    material.Title,
		Content:  material.Content,
		Category: material.Category,
		Source:   material.Source,
		Chapter:  material.Chapter,
		Section:  material.Section,
		Metadata: map[string]interface{}{
			"material_id": material.Id.String(),
		},
	})
	if err != nil {
		// The content itself is unsplittable; a redelivery would fail the
		// same way.
		is.markFailed(ctx, uow, material, fmt.Errorf("chunking: %w", err))
		msg.Ack()
		return
	}

	for i := range docs {
		res, err := is.embeddingProvider.Generate(docs[i].Content, embedding.TaskRetrievalDocument)
		if err != nil {
			if isPermanentEmbedError(err) {
				is.markFailed(ctx, uow, material, fmt.Errorf("embed chunk %d: %w", i, err))
				msg.Ack()
				return
			}
			is.logger.Error("indexer", "embedding failed, message will be retried", map[string]interface{}{
				"material_id": material.Id,
				"chunk_index": i,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}
		docs[i].Embedding = res.Embedding.Values
	}

	// Updates are delete + reinsert so stale chunks of the previous split
	// never linger next to the new ones.
	if err := is.vectorIndex.DeleteBySource(ctx, material.Source); err != nil {
		is.logger.Error("indexer", "failed to delete stale chunks", map[string]interface{}{
			"material_id": material.Id,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	if err := is.vectorIndex.Upsert(ctx, docs); err != nil {
		is.logger.Error("indexer", "failed to upsert chunks", map[string]interface{}{
			"material_id": material.Id,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	if err := is.markIndexed(ctx, uow, material, len(docs)); err != nil {
		is.logger.Error("indexer", "failed to update material status", map[string]interface{}{
			"material_id": material.Id,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	is.publishEvent(ctx, events.NewMaterialIndexed(material.Id, material.Source, len(docs)))
	is.logger.Info("indexer", "material indexed", map[string]interface{}{
		"material_id": material.Id,
		"source":      material.Source,
		"chunks":      len(docs),
	})
	msg.Ack()
}

func (is *indexerService) markIndexed(ctx context.Context, uow unitofwork.UnitOfWork, material *entity.SourceMaterial, chunkCount int) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	material.Status = constant.MaterialStatusIndexed
	material.ChunkCount = chunkCount
	material.IndexedAt = &now
	material.UpdatedAt = &now

	if err := uow.SourceMaterialRepository().Update(ctx, material); err != nil {
		return err
	}
	return uow.Commit()
}

func (is *indexerService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, material *entity.SourceMaterial, cause error) {
	is.logger.Error("indexer", "material indexing failed", map[string]interface{}{
		"material_id": material.Id,
		"source":      material.Source,
		"error":       cause.Error(),
	})

	now := time.Now()
	material.Status = constant.MaterialStatusFailed
	material.UpdatedAt = &now
	if err := uow.SourceMaterialRepository().Update(ctx, material); err != nil {
		is.logger.Error("indexer", "failed to record failure status", map[string]interface{}{
			"material_id": material.Id,
			"error":       err.Error(),
		})
	}

	is.publishEvent(ctx, events.NewMaterialIndexFailed(material.Id, material.Source, cause.Error()))
}

func (is *indexerService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if is.eventPublisher == nil {
		return
	}
	if err := is.eventPublisher.Publish(ctx, evt); err != nil {
		is.logger.Warn("indexer", "failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

// isPermanentEmbedError reports whether the provider rejected the request
// itself, as opposed to being briefly unreachable or rate limited.
func isPermanentEmbedError(err error) bool {
	var pe *embedding.ProviderError
	return errors.As(err, &pe) && pe.Kind == embedding.KindRequest
}
