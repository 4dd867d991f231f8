package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

const (
	collectionPrefix = "bookclub_"
	collectionSuffix = "_documents"
)

// ErrNothingStored is returned when every chunk of an upsert failed to
// embed, so the collection gained no points.
var ErrNothingStored = errors.New("no chunks could be embedded")

// CollectionName returns the collection holding a meeting's document
// chunks.
func CollectionName(meetingID string) string {
	return collectionPrefix + meetingID + collectionSuffix
}

// MeetingIDFromCollection extracts the meeting ID from a collection
// name, or "" if the name does not follow the meeting naming scheme.
func MeetingIDFromCollection(name string) string {
	if !strings.HasPrefix(name, collectionPrefix) || !strings.HasSuffix(name, collectionSuffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, collectionPrefix), collectionSuffix)
	return id
}

// CollectionInfo describes one meeting collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	Exists     bool   `json:"exists"`
	PointCount int    `json:"point_count"`
}

// Manager owns per-meeting collections: chunking, embedding, upsert,
// similarity search, and deletion. Writes to the same collection are
// serialized; reads and writes to different collections run freely.
type Manager struct {
	store    Store
	embedder Embedder
	chunker  *Chunker
	dim      int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager storing dim-sized vectors.
func NewManager(store Store, embedder Embedder, dim int) *Manager {
	return &Manager{
		store:    store,
		embedder: embedder,
		chunker:  NewChunker(),
		dim:      dim,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the write lock for one collection, creating it on
// first use.
func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

// UpsertBlocks chunks, embeds, and stores a document's text blocks in
// the meeting's collection, creating the collection if needed. Chunks
// that fail to embed are skipped; the call succeeds as long as at
// least one chunk was stored. Returns the number of stored chunks.
func (m *Manager) UpsertBlocks(ctx context.Context, meetingID, documentID string, blocks []models.PositionedTextBlock) (int, error) {
	name := CollectionName(meetingID)

	type pending struct {
		text  string
		block models.PositionedTextBlock
	}
	var chunks []pending
	for _, block := range blocks {
		if block.IsEmpty() {
			continue
		}
		for _, text := range m.chunker.Split(block.Text) {
			chunks = append(chunks, pending{text: text, block: block})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.EnsureCollection(ctx, name, m.dim); err != nil {
		return 0, fmt.Errorf("ensuring collection for meeting %s: %w", meetingID, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.text
	}
	vectors, skipped, err := m.embedAll(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding document %s: %w", documentID, err)
	}

	points := make([]Point, 0, len(chunks))
	for i, c := range chunks {
		if vectors[i] == nil {
			continue
		}
		points = append(points, Point{
			ID:         uuid.New().String(),
			Vector:     vectors[i],
			Text:       c.text,
			DocumentID: documentID,
			MeetingID:  meetingID,
			PageNumber: c.block.PageNumber,
			X0:         c.block.BBox.X0,
			Y0:         c.block.BBox.Y0,
			X1:         c.block.BBox.X1,
			Y1:         c.block.BBox.Y1,
			BlockType:  string(c.block.BlockType),
		})
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("document %s: %w", documentID, ErrNothingStored)
	}

	if err := m.store.UpsertPoints(ctx, name, points); err != nil {
		return 0, fmt.Errorf("storing document %s chunks: %w", documentID, err)
	}
	if skipped > 0 {
		slog.Warn("Stored document with embedding gaps",
			"meeting_id", meetingID,
			"document_id", documentID,
			"stored", len(points),
			"skipped", skipped)
	}
	return len(points), nil
}

// embedAll embeds texts in one batch; if the batch call fails it
// retries per text so one bad chunk does not sink the document. The
// result slice is index-aligned with texts, nil where embedding failed.
func (m *Manager) embedAll(ctx context.Context, texts []string) ([][]float32, int, error) {
	vectors, err := m.embedder.Embed(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, 0, nil
	}
	if err != nil {
		slog.Warn("Batch embedding failed, retrying per chunk", "chunks", len(texts), "error", err)
	}

	vectors = make([][]float32, len(texts))
	skipped := 0
	for i, text := range texts {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		single, err := m.embedder.Embed(ctx, []string{text})
		if err != nil || len(single) != 1 {
			skipped++
			continue
		}
		vectors[i] = single[0]
	}
	return vectors, skipped, nil
}

// Query runs a similarity search over a meeting's collection. Results
// come back ordered by similarity descending with scores in [0,1].
// Pass documentID to restrict the search to one document.
func (m *Manager) Query(ctx context.Context, meetingID, queryText string, k int, documentID string) ([]Hit, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}

	vectors, err := m.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors", len(vectors))
	}

	name := CollectionName(meetingID)
	hits, err := m.store.Query(ctx, name, vectors[0], k, QueryFilter{DocumentID: documentID})
	if err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying meeting %s: %w", meetingID, err)
	}
	return hits, nil
}

// DropCollection removes a meeting's collection. Dropping an absent
// collection is a no-op.
func (m *Manager) DropCollection(ctx context.Context, meetingID string) error {
	name := CollectionName(meetingID)
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()
	if err := m.store.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("dropping collection for meeting %s: %w", meetingID, err)
	}
	return nil
}

// Info reports whether a meeting's collection exists and how many
// points it holds.
func (m *Manager) Info(ctx context.Context, meetingID string) (CollectionInfo, error) {
	name := CollectionName(meetingID)
	info := CollectionInfo{Name: name}

	exists, err := m.store.CollectionExists(ctx, name)
	if err != nil {
		return info, fmt.Errorf("checking collection for meeting %s: %w", meetingID, err)
	}
	info.Exists = exists
	if !exists {
		return info, nil
	}

	count, err := m.store.CountPoints(ctx, name)
	if err != nil {
		return info, fmt.Errorf("counting points for meeting %s: %w", meetingID, err)
	}
	info.PointCount = count
	return info, nil
}

// ListMeetingCollections returns the meeting IDs that currently have a
// collection.
func (m *Manager) ListMeetingCollections(ctx context.Context) ([]string, error) {
	names, err := m.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	var meetings []string
	for _, name := range names {
		if id := MeetingIDFromCollection(name); id != "" {
			meetings = append(meetings, id)
		}
	}
	return meetings, nil
}
