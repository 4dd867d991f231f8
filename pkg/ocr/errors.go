package ocr

import "errors"

// Errors that cross the pipeline boundary. Everything else is folded
// into a structured ProcessResult.
var (
	// ErrFirstFrameNotInfo means the stream opened with a chunk frame.
	ErrFirstFrameNotInfo = errors.New("first frame must carry document metadata")

	// ErrMissingDocumentID means the metadata frame had no document ID.
	ErrMissingDocumentID = errors.New("document metadata missing document_id")

	// ErrMissingMeetingID means the metadata frame had no meeting ID.
	ErrMissingMeetingID = errors.New("document metadata missing meeting_id")

	// ErrPayloadTooLarge means the assembled upload exceeded the cap.
	ErrPayloadTooLarge = errors.New("document exceeds maximum upload size")

	// ErrWorkerUnavailable tags connection-level worker failures, which
	// are always retried.
	ErrWorkerUnavailable = errors.New("ocr worker unavailable")

	// ErrWorkerRejected tags semantic rejections from the worker, which
	// are never retried.
	ErrWorkerRejected = errors.New("ocr worker rejected document")
)
