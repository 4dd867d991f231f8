package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
)

// endMeetingHandler handles POST /api/v1/meetings/:id/end.
func (s *Server) endMeetingHandler(c *echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting id is required")
	}

	var req EndMeetingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.coordinator.EndMeeting(c.Request().Context(), meetingID, config.MeetingType(req.MeetingType), req.Extras)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// manualCleanupHandler handles POST /api/v1/meetings/:id/cleanup, the
// janitor retry path for vector drops that exhausted their retries.
func (s *Server) manualCleanupHandler(c *echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting id is required")
	}

	var req ManualCleanupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.coordinator.ManualCleanup(c.Request().Context(), meetingID, req.Force); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// collectionInfoHandler handles GET /api/v1/meetings/:id/collection.
func (s *Server) collectionInfoHandler(c *echo.Context) error {
	meetingID := c.Param("id")
	if meetingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "meeting id is required")
	}

	info, err := s.vectors.Info(c.Request().Context(), meetingID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, info)
}
