package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// The /test endpoints exercise the AI services directly over plain
// HTTP so they can be poked with curl before any client exists.

func (s *Server) testQuizHandler(c *echo.Context) error {
	var req TestQuizRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.MeetingID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting_id is required")
	}

	result := s.quizzes.Generate(c.Request().Context(), req.MeetingID, req.DocumentID, req.Topic, req.QuestionCount)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) testProofreadHandler(c *echo.Context) error {
	var req TestProofreadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	result := s.proofreader.Proofread(c.Request().Context(), req.MeetingID, req.UserID, req.Text, req.Context)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) testRAGHandler(c *echo.Context) error {
	var req TestRAGRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.MeetingID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting_id is required")
	}

	hits, err := s.vectors.Query(c.Request().Context(), req.MeetingID, req.Query, req.K, req.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &RAGResponse{Success: true, Hits: hits})
}
