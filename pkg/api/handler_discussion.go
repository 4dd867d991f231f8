package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// startDiscussionHandler handles POST /api/v1/discussions.
func (s *Server) startDiscussionHandler(c *echo.Context) error {
	var req StartDiscussionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.MeetingID) == "" || strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting_id and session_id are required")
	}

	if err := s.engine.StartDiscussion(c.Request().Context(), req.MeetingID, req.SessionID, req.DocumentID, req.Participants); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &StartDiscussionResponse{Success: true, SessionID: req.SessionID})
}

// postMessageHandler handles POST /api/v1/discussions/:id/messages.
// A missing session yields an empty moderator reply, not an error.
func (s *Server) postMessageHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	result, err := s.engine.PostMessage(c.Request().Context(), sessionID, req.UserID, req.Nickname, req.Content)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// endDiscussionHandler handles DELETE /api/v1/discussions/:id. Idempotent.
func (s *Server) endDiscussionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	existed, err := s.engine.EndDiscussion(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	s.registry.DisconnectSession(sessionID, "discussion ended")
	return c.JSON(http.StatusOK, &EndDiscussionResponse{Success: true, Existed: existed})
}
