package ocr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// sliceFrames replays a fixed frame sequence.
type sliceFrames struct {
	frames []*Frame
	pos    int
}

func (s *sliceFrames) Next(context.Context) (*Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

type fakeWorker struct {
	blocks   []models.PositionedTextBlock
	err      error
	gotInfo  DocumentInfo
	gotBytes []byte
}

func (w *fakeWorker) Recognize(_ context.Context, info DocumentInfo, pdf []byte) ([]models.PositionedTextBlock, error) {
	w.gotInfo = info
	w.gotBytes = append([]byte(nil), pdf...)
	if w.err != nil {
		return nil, w.err
	}
	return w.blocks, nil
}

func infoFrame(documentID, meetingID string) *Frame {
	return &Frame{Info: &DocumentInfo{DocumentID: documentID, MeetingID: meetingID}}
}

func chunkFrame(data []byte) *Frame {
	return &Frame{Chunk: data}
}

func TestProcessDocument_HappyPath(t *testing.T) {
	worker := &fakeWorker{blocks: []models.PositionedTextBlock{
		{Text: "First page text", PageNumber: 1, BBox: models.BBox{X0: 0.1, Y0: 0.1, X1: 0.9, Y1: 0.2}, Confidence: 0.9, BlockType: models.BlockTypeText},
		{Text: "Second page text", PageNumber: 2, BBox: models.BBox{X0: 0.1, Y0: 0.1, X1: 0.9, Y1: 0.2}, Confidence: 0.8, BlockType: models.BlockTypeText},
	}}
	p := NewPipeline(worker, 100<<20)

	frames := &sliceFrames{frames: []*Frame{
		infoFrame("D1", "M1"),
		chunkFrame([]byte("part one ")),
		chunkFrame([]byte("part two ")),
		chunkFrame([]byte("part three")),
	}}
	result, err := p.ProcessDocument(context.Background(), frames)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "D1", result.DocumentID)
	assert.Equal(t, 2, result.TotalPages)
	assert.Len(t, result.TextBlocks, 2)

	assert.Equal(t, "D1", worker.gotInfo.DocumentID)
	assert.Equal(t, "M1", worker.gotInfo.MeetingID)
	assert.True(t, bytes.Equal([]byte("part one part two part three"), worker.gotBytes))
}

func TestProcessDocument_ZeroChunks(t *testing.T) {
	p := NewPipeline(&fakeWorker{}, 100<<20)

	result, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("D1", "M1"),
	}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No PDF data received", result.Message)
	assert.Equal(t, "D1", result.DocumentID)
}

func TestProcessDocument_FirstFrameMustBeInfo(t *testing.T) {
	p := NewPipeline(&fakeWorker{}, 100<<20)

	_, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		chunkFrame([]byte("data")),
	}})
	assert.ErrorIs(t, err, ErrFirstFrameNotInfo)

	_, err = p.ProcessDocument(context.Background(), &sliceFrames{})
	assert.ErrorIs(t, err, ErrFirstFrameNotInfo)
}

func TestProcessDocument_MetadataValidation(t *testing.T) {
	p := NewPipeline(&fakeWorker{}, 100<<20)

	_, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("", "M1"),
	}})
	assert.ErrorIs(t, err, ErrMissingDocumentID)

	_, err = p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("D1", "  "),
	}})
	assert.ErrorIs(t, err, ErrMissingMeetingID)
}

func TestProcessDocument_PayloadCap(t *testing.T) {
	p := NewPipeline(&fakeWorker{}, 10)

	_, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("D1", "M1"),
		chunkFrame(make([]byte, 8)),
		chunkFrame(make([]byte, 8)),
	}})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestProcessDocument_WorkerFailureIsStructured(t *testing.T) {
	worker := &fakeWorker{err: errors.New("worker exploded")}
	p := NewPipeline(worker, 100<<20)

	result, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("D1", "M1"),
		chunkFrame([]byte("pdf bytes")),
	}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "worker exploded")
}

func TestProcessDocument_SanitizesBlocks(t *testing.T) {
	worker := &fakeWorker{blocks: []models.PositionedTextBlock{
		{Text: "   ", PageNumber: 1, BBox: models.BBox{X0: 0, Y0: 0, X1: 1, Y1: 1}},
		{Text: "inverted box", PageNumber: 3, BBox: models.BBox{X0: 0.9, Y0: 0.9, X1: 0.1, Y1: 0.1}, Confidence: 1.7},
		{Text: "bad page", PageNumber: 0, BBox: models.BBox{X0: 0.1, Y0: 0.1, X1: 0.2, Y1: 0.2}, Confidence: -0.5, BlockType: "scribble"},
	}}
	p := NewPipeline(worker, 100<<20)

	result, err := p.ProcessDocument(context.Background(), &sliceFrames{frames: []*Frame{
		infoFrame("D1", "M1"),
		chunkFrame([]byte("pdf bytes")),
	}})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.TextBlocks, 2)

	repaired := result.TextBlocks[0]
	assert.Equal(t, models.UnitBBox(), repaired.BBox)
	assert.Equal(t, 1.0, repaired.Confidence)

	defaulted := result.TextBlocks[1]
	assert.Equal(t, 1, defaulted.PageNumber)
	assert.Equal(t, 0.0, defaulted.Confidence)
	assert.Equal(t, models.BlockTypeText, defaulted.BlockType)

	assert.Equal(t, 3, result.TotalPages)
}

func TestCountPages(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj << /Type /Pages /Kids [2 0 R 3 0 R] >>\n2 0 obj << /Type /Page >>\n3 0 obj << /Type /Page >>\n")
	assert.Equal(t, 2, CountPages(pdf))
	assert.Equal(t, 0, CountPages([]byte("not a pdf with /Type /Page inside")))
	assert.Equal(t, 0, CountPages(nil))
}
