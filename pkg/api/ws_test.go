package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/discussion"
	"github.com/openSongce/bookglebookgle-sub001/pkg/ocr"
)

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestDocumentsStream_IngestAndIndex(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/documents"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusInternalError, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"document_id":"d1","meeting_id":"m1"}`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary,
		[]byte("%PDF-1.4 test document body")))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"done":true}`)))

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, msgType)

	var result ocr.ProcessResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Success)
	assert.Equal(t, "d1", result.DocumentID)
	assert.NotEmpty(t, result.TextBlocks)

	info, err := s.vectors.Info(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Greater(t, info.PointCount, 0)
}

func TestDocumentsStream_NoChunksReportsFailure(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/documents"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusInternalError, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"document_id":"d1","meeting_id":"m1"}`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"done":true}`)))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var result ocr.ProcessResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.False(t, result.Success)
	assert.Equal(t, "No PDF data received", result.Message)
}

func TestDiscussionStream_ModeratorReply(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, s.engine.StartDiscussion(ctx, "m1", "s1", "", nil))

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/discussion?session_id=s1"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusInternalError, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"user_id":"u1","nickname":"민준","content":"이 책의 주제는 무엇인가요?"}`)))

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, msgType)

	var result discussion.TurnResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotEmpty(t, result.AIResponse)

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestDiscussionStream_SeveredOnMeetingEnd(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, s.engine.StartDiscussion(ctx, "m1", "s1", "", nil))

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/discussion?session_id=s1"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusInternalError, "")

	// Wait until the stream is registered before severing it.
	require.Eventually(t, func() bool {
		return s.registry.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	closed := s.registry.DisconnectSession("s1", "meeting ended")
	assert.Equal(t, 1, closed)

	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	var closeErr websocket.CloseError
	if assert.ErrorAs(t, err, &closeErr) {
		assert.Equal(t, websocket.StatusGoingAway, closeErr.Code)
		assert.Equal(t, "meeting ended", closeErr.Reason)
	}
}
