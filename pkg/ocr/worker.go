package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/models"
)

// Per-page timeout scaling and per-attempt extension. Effective timeout
// for attempt n is max(baseTimeout, pages*perPageTimeout) + n*attemptExtension.
const (
	perPageTimeout   = 5 * time.Second
	attemptExtension = 10 * time.Second
)

// Worker recognizes text in an assembled PDF. Implemented by the
// remote websocket worker and by fakes in tests.
type Worker interface {
	Recognize(ctx context.Context, info DocumentInfo, pdf []byte) ([]models.PositionedTextBlock, error)
}

// workerResponse is the single JSON reply from the worker after it has
// received the full document.
type workerResponse struct {
	Success bool                         `json:"success"`
	Message string                       `json:"message"`
	Blocks  []models.PositionedTextBlock `json:"blocks"`
}

// workerTransport performs one recognition attempt.
type workerTransport interface {
	do(ctx context.Context, info DocumentInfo, pdf []byte) (*workerResponse, error)
}

// RemoteWorker wraps the worker transport with page-adaptive timeouts
// and retry. Connection failures and timeouts are retried with linear
// backoff; a semantic rejection from the worker is returned immediately.
type RemoteWorker struct {
	transport     workerTransport
	baseTimeout   time.Duration
	retryAttempts int
	retryDelay    time.Duration
}

// NewRemoteWorker builds a worker client from settings.
func NewRemoteWorker(cfg *config.Settings) *RemoteWorker {
	return &RemoteWorker{
		transport: &wsTransport{
			endpoint:  cfg.OCRWorkerEndpoint,
			chunkSize: cfg.WorkerChunkBytes,
			readLimit: cfg.WorkerMaxMessageBytes,
		},
		baseTimeout:   cfg.OCRBaseTimeout(),
		retryAttempts: cfg.OCRRetryAttempts,
		retryDelay:    cfg.OCRRetryDelay(),
	}
}

// Recognize implements Worker.
func (w *RemoteWorker) Recognize(ctx context.Context, info DocumentInfo, pdf []byte) ([]models.PositionedTextBlock, error) {
	pages := CountPages(pdf)

	attempts := w.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, w.retryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
			slog.Info("Retrying OCR worker call",
				"document_id", info.DocumentID,
				"attempt", attempt+1,
				"attempts", attempts)
		}

		timeout := w.timeoutFor(pages, attempt)
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := w.transport.do(attemptCtx, info, pdf)
		cancel()

		if err == nil {
			if !resp.Success {
				return nil, fmt.Errorf("%w: %s", ErrWorkerRejected, resp.Message)
			}
			return resp.Blocks, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		slog.Warn("OCR worker attempt failed",
			"document_id", info.DocumentID,
			"attempt", attempt+1,
			"timeout", timeout,
			"error", err)
	}
	return nil, fmt.Errorf("ocr failed after %d attempts: %w", attempts, lastErr)
}

// timeoutFor scales the timeout with document size and grows it per
// attempt so a slow-but-healthy worker eventually fits.
func (w *RemoteWorker) timeoutFor(pages, attempt int) time.Duration {
	timeout := w.baseTimeout
	if scaled := time.Duration(pages) * perPageTimeout; scaled > timeout {
		timeout = scaled
	}
	return timeout + time.Duration(attempt)*attemptExtension
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// workerInfo is the text frame opening the worker leg. TotalBytes lets
// the worker detect a complete upload without a half-close.
type workerInfo struct {
	DocumentID string `json:"document_id"`
	MeetingID  string `json:"meeting_id"`
	TotalBytes int    `json:"total_bytes"`
}

// wsTransport streams the document to the worker over one websocket
// connection: an info text frame, N binary chunks, then a single JSON
// response frame.
type wsTransport struct {
	endpoint  string
	chunkSize int
	readLimit int64
}

func (t *wsTransport) do(ctx context.Context, info DocumentInfo, pdf []byte) (*workerResponse, error) {
	conn, _, err := websocket.Dial(ctx, "ws://"+t.endpoint+"/ocr", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrWorkerUnavailable, t.endpoint, err)
	}
	defer conn.Close(websocket.StatusInternalError, "aborted")
	if t.readLimit > 0 {
		conn.SetReadLimit(t.readLimit)
	}

	header, err := json.Marshal(workerInfo{
		DocumentID: info.DocumentID,
		MeetingID:  info.MeetingID,
		TotalBytes: len(pdf),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding worker info: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, header); err != nil {
		return nil, fmt.Errorf("%w: sending info frame: %v", ErrWorkerUnavailable, err)
	}

	chunkSize := t.chunkSize
	if chunkSize < 1 {
		chunkSize = 2 << 20
	}
	for offset := 0; offset < len(pdf); offset += chunkSize {
		end := offset + chunkSize
		if end > len(pdf) {
			end = len(pdf)
		}
		if err := conn.Write(ctx, websocket.MessageBinary, pdf[offset:end]); err != nil {
			return nil, fmt.Errorf("%w: sending chunk at %d: %v", ErrWorkerUnavailable, offset, err)
		}
	}

	msgType, data, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrWorkerUnavailable, err)
	}
	if msgType != websocket.MessageText {
		return nil, fmt.Errorf("unexpected response frame type %v from worker", msgType)
	}

	var resp workerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding worker response: %w", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
	return &resp, nil
}
