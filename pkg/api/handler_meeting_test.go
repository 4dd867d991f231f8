package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/lifecycle"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

func TestEndMeetingHandler_Validation(t *testing.T) {
	s := newTestServer(t)

	t.Run("unsupported meeting type", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/meetings/m1/end",
			`{"meeting_type":"karaoke"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("discussion without sessionId", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/meetings/m1/end",
			`{"meeting_type":"discussion"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEndMeetingHandler_DiscussionCascade(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m1","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/meetings/m1/end",
		`{"meeting_type":"discussion","extras":{"sessionId":"s1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result lifecycle.EndMeetingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.SessionEnded)
	assert.True(t, result.VectorCleanupScheduled)

	services := make([]string, 0, len(result.Cleanups))
	for _, report := range result.Cleanups {
		services = append(services, report.Service)
		assert.True(t, report.Success, report.Service)
	}
	assert.ElementsMatch(t, []string{"quiz", "proofreading"}, services)

	s.coordinator.Wait()
}

func TestManualCleanupHandler(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	blocks := []models.PositionedTextBlock{{Text: "본문", PageNumber: 1, BBox: models.UnitBBox(), Confidence: 1, BlockType: models.BlockTypeText}}
	_, err := s.vectors.UpsertBlocks(ctx, "m1", "d1", blocks)
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/meetings/m1/cleanup", `{"force":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	info, err := s.vectors.Info(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestCollectionInfoHandler(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, s, http.MethodGet, "/api/v1/meetings/m1/collection", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info vector.CollectionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.False(t, info.Exists)
	assert.Equal(t, "bookclub_m1_documents", info.Name)

	blocks := []models.PositionedTextBlock{{Text: "본문", PageNumber: 1, BBox: models.UnitBBox(), Confidence: 1, BlockType: models.BlockTypeText}}
	_, err := s.vectors.UpsertBlocks(ctx, "m1", "d1", blocks)
	require.NoError(t, err)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/meetings/m1/collection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Exists)
	assert.Greater(t, info.PointCount, 0)
}
