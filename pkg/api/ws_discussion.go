package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// discussionStreamHandler handles GET /ws/discussion?session_id=...,
// the bidirectional chat stream. Each client text frame carries one
// participant message; the server answers every frame with the
// moderator turn result (possibly empty). The stream is registered so
// ending the meeting severs it with a reason the client can display.
func (s *Server) discussionStreamHandler(c *echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id query parameter is required")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("websocket upgrade failed: %v", err))
	}
	defer conn.Close(websocket.StatusInternalError, "")
	conn.SetReadLimit(s.cfg.ServerMaxMessageBytes)

	streamID := s.registry.Register(sessionID, &wsStreamTransport{conn: conn})
	defer s.registry.Unregister(streamID)

	slog.Info("Discussion stream opened", "session_id", sessionID, "stream_id", streamID)

	ctx := c.Request().Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				return nil
			}
			slog.Debug("Discussion stream closed",
				"session_id", sessionID,
				"stream_id", streamID,
				"error", err)
			return nil
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return nil
		}

		var msg PostMessageRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.Close(websocket.StatusPolicyViolation, "invalid message payload")
			return nil
		}
		s.registry.Touch(streamID)

		result, err := s.engine.PostMessage(ctx, sessionID, msg.UserID, msg.Nickname, msg.Content)
		if err != nil {
			slog.Error("Discussion turn failed",
				"session_id", sessionID,
				"user_id", msg.UserID,
				"error", err)
			conn.Close(websocket.StatusInternalError, "message processing failed")
			return nil
		}

		reply, err := json.Marshal(result)
		if err != nil {
			return nil
		}
		if err := conn.Write(ctx, websocket.MessageText, reply); err != nil {
			return nil
		}
	}
}

// wsStreamTransport lets the stream registry cancel a live WebSocket.
type wsStreamTransport struct {
	conn *websocket.Conn
}

func (t *wsStreamTransport) Cancel(reason string) error {
	return t.conn.Close(websocket.StatusGoingAway, reason)
}
