package handlers

// Error codes carried in ErrorResponse.Code.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "unavailable"

	// Domain-specific:
	ErrCodeDialogFailed  = "dialog_failed"
	ErrCodeIngestFailed  = "ingest_failed"
	ErrCodeIngestRunning = "ingest_running"
	ErrCodeListFailed    = "list_failed"
)

// Front-end messages.
const (
	MsgMissingBody     = "Invalid request. Missing body."
	MsgProcessingError = "Error processing request"
)
