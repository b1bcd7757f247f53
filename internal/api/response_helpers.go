// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/services"
	"github.com/Corphon/ScriptRehearsal/internal/storage"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// APIResponse is the error envelope. Successful responses carry the resource
// itself.
type APIResponse struct {
	Success   bool      `json:"success"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

// ResponseHelper writes JSON responses.
type ResponseHelper struct {
	logger *utils.Logger
}

// NewResponseHelper creates a response helper logging through logger.
func NewResponseHelper(logger *utils.Logger) *ResponseHelper {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &ResponseHelper{logger: logger}
}

// Success writes data with 200.
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes data with 201.
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error writes the error envelope.
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}
	if len(details) > 0 {
		apiError.Details = details[0]
	}
	rh.write(c, statusCode, apiError)
}

// BadRequest 400
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// ValidationFailed 400 with per-field messages.
func (rh *ResponseHelper) ValidationFailed(c *gin.Context, message string, fields ...apperrors.FieldError) {
	rh.write(c, http.StatusBadRequest, &APIError{
		Code:    ErrorValidation,
		Message: message,
		Fields:  fields,
	})
}

// NotFound 404
func (rh *ResponseHelper) NotFound(c *gin.Context, code, message string) {
	if code == "" {
		code = ErrorNotFound
	}
	rh.Error(c, http.StatusNotFound, code, message)
}

// InternalError 500. The cause is logged, never returned to the client.
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, cause error) {
	fields := map[string]interface{}{
		"path":       c.FullPath(),
		"request_id": rh.getRequestID(c),
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	rh.logger.Error(message, fields)
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, "An internal error occurred")
}

// HandleError maps an application error onto its HTTP response.
func (rh *ResponseHelper) HandleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		rh.InternalError(c, "unhandled error", err)
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		rh.ValidationFailed(c, appErr.Message, appErr.Fields...)
	case apperrors.ErrorTypeNotFound:
		rh.NotFound(c, notFoundCode(appErr), appErr.Message)
	case apperrors.ErrorTypeConflict:
		rh.Error(c, http.StatusConflict, ErrorConflict, appErr.Message)
	default:
		rh.InternalError(c, appErr.Message, appErr)
	}
}

func (rh *ResponseHelper) write(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// notFoundCode picks the resource-specific code from the error's cause.
func notFoundCode(err error) string {
	switch {
	case errors.Is(err, storage.ErrScriptNotFound):
		return ErrorScriptNotFound
	case errors.Is(err, storage.ErrCharacterNotFound):
		return ErrorCharacterNotFound
	case errors.Is(err, storage.ErrDialogueNotFound):
		return ErrorDialogueNotFound
	case errors.Is(err, services.ErrSessionNotFound):
		return ErrorSessionNotFound
	default:
		return ErrorNotFound
	}
}
