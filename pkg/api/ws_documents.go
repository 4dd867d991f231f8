package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/openSongce/bookglebookgle-sub001/pkg/ocr"
)

// documentsStreamHandler handles GET /ws/documents, the chunked PDF
// ingest stream. The client opens with one text frame carrying the
// document metadata, streams the PDF as binary frames, and marks the
// end of the upload with any further text frame. The server replies
// with a single JSON result frame and closes.
func (s *Server) documentsStreamHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("websocket upgrade failed: %v", err))
	}
	defer conn.Close(websocket.StatusInternalError, "")
	conn.SetReadLimit(s.cfg.ServerMaxMessageBytes)

	ctx := c.Request().Context()
	src := &wsFrameSource{conn: conn}

	result, err := s.pipeline.ProcessDocument(ctx, src)
	if err != nil {
		status := websocket.StatusPolicyViolation
		if errors.Is(err, ocr.ErrPayloadTooLarge) {
			status = websocket.StatusMessageTooBig
		}
		slog.Warn("Document stream rejected", "error", err)
		conn.Close(status, err.Error())
		return nil
	}

	if result.Success && len(result.TextBlocks) > 0 {
		stored, err := s.vectors.UpsertBlocks(ctx, src.info.MeetingID, result.DocumentID, result.TextBlocks)
		if err != nil {
			slog.Error("Indexing OCR blocks failed",
				"document_id", result.DocumentID,
				"meeting_id", src.info.MeetingID,
				"error", err)
		} else {
			slog.Info("Document indexed",
				"document_id", result.DocumentID,
				"meeting_id", src.info.MeetingID,
				"chunks", stored)
		}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		slog.Warn("Writing ingest result failed", "document_id", result.DocumentID, "error", err)
		return nil
	}
	conn.Close(websocket.StatusNormalClosure, "")
	return nil
}

// wsFrameSource adapts a WebSocket connection to the pipeline's frame
// stream. It remembers the metadata frame so the handler can index the
// result against the right meeting.
type wsFrameSource struct {
	conn    *websocket.Conn
	info    ocr.DocumentInfo
	sawInfo bool
}

func (f *wsFrameSource) Next(ctx context.Context) (*ocr.Frame, error) {
	typ, data, err := f.conn.Read(ctx)
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	switch typ {
	case websocket.MessageText:
		if f.sawInfo {
			// Any text frame after the metadata ends the upload.
			return nil, io.EOF
		}
		var info ocr.DocumentInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decoding document metadata: %w", err)
		}
		f.info = info
		f.sawInfo = true
		return &ocr.Frame{Info: &info}, nil
	case websocket.MessageBinary:
		return &ocr.Frame{Chunk: data}, nil
	default:
		return nil, fmt.Errorf("unexpected frame type %v", typ)
	}
}
