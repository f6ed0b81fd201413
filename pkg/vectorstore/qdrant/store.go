package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"ai-examprep-be/pkg/store"
	"ai-examprep-be/pkg/vectorstore"
)

// QdrantStore talks to Qdrant over gRPC. Point ids are the fnv-64a hash
// of the document id; the real id travels in the payload.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   int
}

var _ vectorstore.Store = &QdrantStore{}

func NewQdrantStore(addr, collection string, dimension int) (*QdrantStore, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	return &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
		dimension:   dimension,
	}, nil
}

// Init creates the collection if it does not exist yet.
func (s *QdrantStore) Init(ctx context.Context) error {
	collections, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, col := range collections.GetCollections() {
		if col.GetName() == s.collection {
			return nil
		}
	}

	createReq := &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}
	if _, err := s.collections.Create(ctx, createReq); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrantclient.PointStruct, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		if len(doc.Embedding) != s.dimension {
			return fmt.Errorf("document %s embedding dimension %d, collection uses %d", doc.ID, len(doc.Embedding), s.dimension)
		}

		points = append(points, &qdrantclient.PointStruct{
			Id: pointId(doc.ID),
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{
						Data: doc.Embedding,
					},
				},
			},
			Payload: pointPayload(doc),
		})
	}

	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int, category string) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	searchReq := &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         categoryFilter(category),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}

	resp, err := s.points.Search(ctx, searchReq)
	if err != nil {
		if isCollectionMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]vectorstore.SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		// Qdrant scores cosine collections by similarity, higher is
		// better; the Store contract wants distance.
		results = append(results, vectorstore.SearchResult{
			Document: docFromPayload(point.GetPayload()),
			Distance: 1 - float64(point.GetScore()),
		})
	}
	return results, nil
}

func (s *QdrantStore) GetByIds(ctx context.Context, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIds := make([]*qdrantclient.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = pointId(id)
	}

	resp, err := s.points.Get(ctx, &qdrantclient.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIds,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		if isCollectionMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get points: %w", err)
	}

	docs := make([]store.Document, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		docs = append(docs, docFromPayload(point.GetPayload()))
	}
	return docs, nil
}

func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIds := make([]*qdrantclient.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = pointId(id)
	}

	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Points{
				Points: &qdrantclient.PointsIdsList{Ids: pointIds},
			},
		},
	})
	if err != nil && !isCollectionMissing(err) {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

func (s *QdrantStore) DeleteBySource(ctx context.Context, source string) error {
	filter := &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			fieldMatch("source", source),
		},
	}

	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil && !isCollectionMissing(err) {
		return fmt.Errorf("delete points by source: %w", err)
	}
	return nil
}

func (s *QdrantStore) Count(ctx context.Context) (int64, error) {
	exact := true
	resp, err := s.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		if isCollectionMissing(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int64(resp.GetResult().GetCount()), nil
}

func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func pointId(id string) *qdrantclient.PointId {
	h := fnv.New64a()
	h.Write([]byte(id))
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Num{Num: h.Sum64()},
	}
}

func categoryFilter(category string) *qdrantclient.Filter {
	if category == "" {
		return nil
	}
	return &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			fieldMatch("category", category),
		},
	}
}

func fieldMatch(key, value string) *qdrantclient.Condition {
	return &qdrantclient.Condition{
		ConditionOneOf: &qdrantclient.Condition_Field{
			Field: &qdrantclient.FieldCondition{
				Key: key,
				Match: &qdrantclient.Match{
					MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func pointPayload(doc *store.Document) map[string]*qdrantclient.Value {
	payload := map[string]*qdrantclient.Value{
		"id":         stringValue(doc.ID),
		"title":      stringValue(doc.Title),
		"text":       stringValue(doc.Content),
		"category":   stringValue(doc.Category),
		"source":     stringValue(doc.Source),
		"chapter":    stringValue(doc.Chapter),
		"section":    stringValue(doc.Section),
		"tags":       stringValue(strings.Join(doc.Tags, ",")),
		"updated_at": stringValue(doc.UpdatedAt.Format(time.RFC3339)),
	}
	if len(doc.Metadata) > 0 {
		if b, err := json.Marshal(doc.Metadata); err == nil {
			payload["metadata"] = stringValue(string(b))
		}
	}
	return payload
}

func docFromPayload(payload map[string]*qdrantclient.Value) store.Document {
	doc := store.Document{
		ID:       payloadString(payload, "id"),
		Title:    payloadString(payload, "title"),
		Content:  payloadString(payload, "text"),
		Category: payloadString(payload, "category"),
		Source:   payloadString(payload, "source"),
		Chapter:  payloadString(payload, "chapter"),
		Section:  payloadString(payload, "section"),
	}

	if tags := payloadString(payload, "tags"); tags != "" {
		doc.Tags = strings.Split(tags, ",")
	}
	if raw := payloadString(payload, "metadata"); raw != "" {
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &metadata); err == nil {
			doc.Metadata = metadata
		}
	}
	if ts := payloadString(payload, "updated_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			doc.UpdatedAt = t
		}
	}
	return doc
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func payloadString(payload map[string]*qdrantclient.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func isCollectionMissing(err error) bool {
	return status.Code(err) == codes.NotFound
}
