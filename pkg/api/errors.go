package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/openSongce/bookglebookgle-sub001/pkg/discussion"
	"github.com/openSongce/bookglebookgle-sub001/pkg/lifecycle"
	"github.com/openSongce/bookglebookgle-sub001/pkg/ocr"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, lifecycle.ErrUnsupportedMeetingType),
		errors.Is(err, lifecycle.ErrMissingSessionID),
		errors.Is(err, ocr.ErrFirstFrameNotInfo),
		errors.Is(err, ocr.ErrMissingDocumentID),
		errors.Is(err, ocr.ErrMissingMeetingID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ocr.ErrPayloadTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, discussion.ErrSessionExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, discussion.ErrSessionNotFound),
		errors.Is(err, vector.ErrCollectionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
