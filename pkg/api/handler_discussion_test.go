package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/discussion"
)

func TestStartDiscussionHandler_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing session id", `{"meeting_id":"m1"}`},
		{"missing meeting id", `{"session_id":"s1"}`},
		{"blank fields", `{"meeting_id":"  ","session_id":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStartDiscussionHandler_ConflictOnDifferentMeeting(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m1","session_id":"s1","participants":[{"user_id":"u1","nickname":"민준"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Identical restart is idempotent.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m1","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same session bound to another meeting is a conflict.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m2","session_id":"s1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostMessageHandler(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m1","session_id":"s1","participants":[{"user_id":"u1","nickname":"민준"},{"user_id":"u2","nickname":"서연"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("missing content returns 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions/s1/messages",
			`{"user_id":"u1","nickname":"민준","content":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("question triggers a moderator reply", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions/s1/messages",
			`{"user_id":"u1","nickname":"민준","content":"이 책의 주제는 무엇인가요?"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result discussion.TurnResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.NotEmpty(t, result.AIResponse)
		assert.False(t, result.RequiresModeration)
	})

	t.Run("unknown session yields an empty turn", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions/nope/messages",
			`{"user_id":"u1","nickname":"민준","content":"안녕하세요"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result discussion.TurnResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Empty(t, result.AIResponse)
	})
}

func TestEndDiscussionHandler_Idempotent(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/discussions",
		`{"meeting_id":"m1","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/discussions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp EndDiscussionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Existed)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/discussions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Existed)
}
