package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used in tests and mock mode.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Point
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Point)}
}

// EnsureCollection implements Store.
func (s *MemoryStore) EnsureCollection(_ context.Context, name string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	return nil
}

// CollectionExists implements Store.
func (s *MemoryStore) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// DropCollection implements Store. Idempotent.
func (s *MemoryStore) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// ListCollections implements Store.
func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CountPoints implements Store.
func (s *MemoryStore) CountPoints(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points, ok := s.collections[name]
	if !ok {
		return 0, ErrCollectionNotFound
	}
	return len(points), nil
}

// UpsertPoints implements Store. Points with an existing ID are replaced.
func (s *MemoryStore) UpsertPoints(_ context.Context, name string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[name]
	byID := make(map[string]int, len(existing))
	for i, p := range existing {
		byID[p.ID] = i
	}
	for _, p := range points {
		if i, ok := byID[p.ID]; ok {
			existing[i] = p
		} else {
			byID[p.ID] = len(existing)
			existing = append(existing, p)
		}
	}
	s.collections[name] = existing
	return nil
}

// Query implements Store using exact cosine similarity.
func (s *MemoryStore) Query(_ context.Context, name string, vector []float32, k int, filter QueryFilter) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, ok := s.collections[name]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		if filter.DocumentID != "" && p.DocumentID != filter.DocumentID {
			continue
		}
		hits = append(hits, Hit{
			Text:       p.Text,
			Similarity: clampSimilarity(cosineSimilarity(vector, p.Vector)),
			DocumentID: p.DocumentID,
			MeetingID:  p.MeetingID,
			PageNumber: p.PageNumber,
			BlockType:  p.BlockType,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
