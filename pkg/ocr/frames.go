// Package ocr implements the streaming document ingestion pipeline:
// chunked PDF intake, fanout to the remote OCR worker with page-adaptive
// timeouts and retry, and assembly of positioned text blocks.
package ocr

import (
	"context"
	"strings"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// DocumentInfo is the metadata frame opening an ingest stream.
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	MeetingID  string `json:"meeting_id"`
}

// Validate checks the mandatory metadata fields.
func (i *DocumentInfo) Validate() error {
	if strings.TrimSpace(i.DocumentID) == "" {
		return ErrMissingDocumentID
	}
	if strings.TrimSpace(i.MeetingID) == "" {
		return ErrMissingMeetingID
	}
	return nil
}

// Frame is one element of an ingest stream: exactly one of Info or
// Chunk is set.
type Frame struct {
	Info  *DocumentInfo
	Chunk []byte
}

// FrameSource yields stream frames in arrival order. Next returns
// io.EOF after the final frame.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
}

// ProcessResult is the structured outcome of one ingest. Failures are
// reported here rather than as errors so the stream response always has
// the same shape.
type ProcessResult struct {
	Success    bool                         `json:"success"`
	Message    string                       `json:"message"`
	DocumentID string                       `json:"document_id"`
	TotalPages int                          `json:"total_pages"`
	TextBlocks []models.PositionedTextBlock `json:"text_blocks"`
}

func failure(documentID, message string) *ProcessResult {
	return &ProcessResult{
		Success:    false,
		Message:    message,
		DocumentID: documentID,
		TextBlocks: []models.PositionedTextBlock{},
	}
}
