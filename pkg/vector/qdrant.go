package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements Store against a Qdrant instance over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to Qdrant. The connection is lazy; failures
// surface on the first operation.
func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client for %s:%d: %w", host, port, err)
	}
	return &QdrantStore{client: client}, nil
}

// EnsureCollection implements Store. Creation is get-or-create.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

// CollectionExists implements Store.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.client.CollectionExists(ctx, name)
}

// DropCollection implements Store. Deleting an absent collection is not
// an error.
func (s *QdrantStore) DropCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// ListCollections implements Store.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	return s.client.ListCollections(ctx)
}

// CountPoints implements Store.
func (s *QdrantStore) CountPoints(ctx context.Context, name string) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points in %s: %w", name, err)
	}
	return int(count), nil
}

// UpsertPoints implements Store. Writes wait for commit so a subsequent
// query sees the new points.
func (s *QdrantStore) UpsertPoints(ctx context.Context, name string, points []Point) error {
	qp := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qp[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":        p.Text,
				"document_id": p.DocumentID,
				"meeting_id":  p.MeetingID,
				"page_number": int64(p.PageNumber),
				"x0":          p.X0,
				"y0":          p.Y0,
				"x1":          p.X1,
				"y1":          p.Y1,
				"block_type":  p.BlockType,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         qp,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %s: %w", len(points), name, err)
	}
	return nil
}

// Query implements Store. Results arrive sorted by cosine similarity
// descending; scores are clamped into [0,1].
func (s *QdrantStore) Query(ctx context.Context, name string, vector []float32, k int, filter QueryFilter) ([]Hit, error) {
	req := &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filter.DocumentID != "" {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", filter.DocumentID),
			},
		}
	}

	scored, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, sp := range scored {
		hit := Hit{Similarity: clampSimilarity(float64(sp.Score))}
		if payload := sp.Payload; payload != nil {
			if v, ok := payload["text"]; ok {
				hit.Text = v.GetStringValue()
			}
			if v, ok := payload["document_id"]; ok {
				hit.DocumentID = v.GetStringValue()
			}
			if v, ok := payload["meeting_id"]; ok {
				hit.MeetingID = v.GetStringValue()
			}
			if v, ok := payload["page_number"]; ok {
				hit.PageNumber = int(v.GetIntegerValue())
			}
			if v, ok := payload["block_type"]; ok {
				hit.BlockType = v.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
