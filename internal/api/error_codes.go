// internal/api/error_codes.go
package api

// API error codes
const (
	// general
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorValidation    = "VALIDATION_ERROR"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// scripts
	ErrorScriptNotFound    = "SCRIPT_NOT_FOUND"
	ErrorCharacterNotFound = "CHARACTER_NOT_FOUND"
	ErrorDialogueNotFound  = "DIALOGUE_NOT_FOUND"

	// rehearsals
	ErrorSessionNotFound = "SESSION_NOT_FOUND"
	ErrorActionInvalid   = "ACTION_INVALID"

	// audio files
	ErrorFileInvalid = "FILE_INVALID"
)
