// Package vector manages per-meeting vector collections: embedding,
// chunked upsert, filtered similarity search, and scoped deletion.
package vector

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by queries against absent collections.
var ErrCollectionNotFound = errors.New("vector collection not found")

// Point is one stored chunk: vector plus citation metadata.
type Point struct {
	ID         string
	Vector     []float32
	Text       string
	DocumentID string
	MeetingID  string
	PageNumber int
	X0, Y0     float64
	X1, Y1     float64
	BlockType  string
}

// Hit is one similarity-search result.
type Hit struct {
	Text       string
	Similarity float64
	DocumentID string
	MeetingID  string
	PageNumber int
	BlockType  string
}

// QueryFilter restricts a similarity search. A zero value matches all
// points in the collection.
type QueryFilter struct {
	DocumentID string
}

// Store is the vector database behind the manager. Implemented by the
// Qdrant client and by the in-memory store used in tests and mock mode.
type Store interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	DropCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CountPoints(ctx context.Context, name string) (int, error)
	UpsertPoints(ctx context.Context, name string, points []Point) error
	Query(ctx context.Context, name string, vector []float32, k int, filter QueryFilter) ([]Hit, error)
}

// Embedder turns text into vectors. Implemented by the OpenAI provider
// and by the deterministic embedder used in tests and mock mode.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
