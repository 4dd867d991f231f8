package api

import "github.com/openSongce/bookglebookgle-sub001/pkg/models"

// StartDiscussionRequest is the body of POST /api/v1/discussions.
type StartDiscussionRequest struct {
	MeetingID    string               `json:"meeting_id"`
	SessionID    string               `json:"session_id"`
	DocumentID   string               `json:"document_id"`
	Participants []models.Participant `json:"participants"`
}

// PostMessageRequest is the body of POST /api/v1/discussions/:id/messages.
type PostMessageRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Content  string `json:"content"`
}

// EndMeetingRequest is the body of POST /api/v1/meetings/:id/end.
type EndMeetingRequest struct {
	MeetingType string            `json:"meeting_type"`
	Extras      map[string]string `json:"extras"`
}

// ManualCleanupRequest is the body of POST /api/v1/meetings/:id/cleanup.
type ManualCleanupRequest struct {
	Force bool `json:"force"`
}

// TestQuizRequest is the body of POST /test/quiz.
type TestQuizRequest struct {
	MeetingID     string `json:"meeting_id"`
	DocumentID    string `json:"document_id"`
	Topic         string `json:"topic"`
	QuestionCount int    `json:"question_count"`
}

// TestProofreadRequest is the body of POST /test/proofread.
type TestProofreadRequest struct {
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Context   string `json:"context"`
}

// TestRAGRequest is the body of POST /test/rag.
type TestRAGRequest struct {
	MeetingID  string `json:"meeting_id"`
	Query      string `json:"query"`
	K          int    `json:"k"`
	DocumentID string `json:"document_id"`
}
