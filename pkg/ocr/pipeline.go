package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// Pipeline assembles a chunked upload and runs it through the OCR
// worker. Each ProcessDocument call is independent; the pipeline holds
// no per-request state.
type Pipeline struct {
	worker         Worker
	maxUploadBytes int64
}

// NewPipeline creates a pipeline with the given upload cap.
func NewPipeline(worker Worker, maxUploadBytes int64) *Pipeline {
	return &Pipeline{worker: worker, maxUploadBytes: maxUploadBytes}
}

// ProcessDocument consumes an ingest stream and returns a structured
// result. Worker failures are folded into the result; the returned
// error is non-nil only for protocol violations (bad first frame,
// oversized upload) and context cancellation, which the transport layer
// maps to its own status codes.
func (p *Pipeline) ProcessDocument(ctx context.Context, frames FrameSource) (*ProcessResult, error) {
	first, err := frames.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrFirstFrameNotInfo
		}
		return nil, fmt.Errorf("reading first frame: %w", err)
	}
	if first.Info == nil {
		return nil, ErrFirstFrameNotInfo
	}
	info := *first.Info
	if err := info.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	chunks := 0
	for {
		frame, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading chunk frame: %w", err)
		}
		if frame.Chunk == nil {
			continue
		}
		if p.maxUploadBytes > 0 && int64(buf.Len())+int64(len(frame.Chunk)) > p.maxUploadBytes {
			return nil, fmt.Errorf("%w: cap %d bytes", ErrPayloadTooLarge, p.maxUploadBytes)
		}
		buf.Write(frame.Chunk)
		chunks++
	}

	if chunks == 0 || buf.Len() == 0 {
		return failure(info.DocumentID, "No PDF data received"), nil
	}

	slog.Info("Document assembled, calling OCR worker",
		"document_id", info.DocumentID,
		"meeting_id", info.MeetingID,
		"bytes", buf.Len(),
		"chunks", chunks)

	blocks, err := p.worker.Recognize(ctx, info, buf.Bytes())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("OCR worker failed", "document_id", info.DocumentID, "error", err)
		return failure(info.DocumentID, fmt.Sprintf("OCR processing failed: %v", err)), nil
	}

	blocks = sanitizeBlocks(info.DocumentID, blocks)
	totalPages := 0
	for _, b := range blocks {
		if b.PageNumber > totalPages {
			totalPages = b.PageNumber
		}
	}

	return &ProcessResult{
		Success:    true,
		Message:    fmt.Sprintf("Processed %d pages", totalPages),
		DocumentID: info.DocumentID,
		TotalPages: totalPages,
		TextBlocks: blocks,
	}, nil
}

// sanitizeBlocks enforces block invariants: empty-text blocks are
// dropped, malformed bounding boxes are replaced with the unit box,
// confidence is clamped to [0,1], and unknown block types default to
// text.
func sanitizeBlocks(documentID string, blocks []models.PositionedTextBlock) []models.PositionedTextBlock {
	out := make([]models.PositionedTextBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.IsEmpty() {
			continue
		}
		if !b.BBox.IsValid() {
			slog.Warn("Malformed bbox in OCR block, substituting unit box",
				"document_id", documentID,
				"page", b.PageNumber)
			b.BBox = models.UnitBBox()
		}
		if b.PageNumber < 1 {
			b.PageNumber = 1
		}
		if b.Confidence < 0 {
			b.Confidence = 0
		} else if b.Confidence > 1 {
			b.Confidence = 1
		}
		if !b.BlockType.IsValid() {
			b.BlockType = models.BlockTypeText
		}
		out = append(out, b)
	}
	return out
}
