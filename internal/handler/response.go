package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sentiscope/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found or expired"
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone, "SESSION_CLOSED", "session was closed; create a new one"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return http.StatusBadRequest, "INDEX_OUT_OF_RANGE", "no screenshot at that position"
	case errors.Is(err, domain.ErrSingleModeOnly):
		return http.StatusBadRequest, "SINGLE_MODE_ONLY", domain.ErrSingleModeOnly.Error()
	case errors.Is(err, domain.ErrSelectionRequired):
		return http.StatusBadRequest, "SELECTION_REQUIRED", domain.ErrSelectionRequired.Error()
	case errors.Is(err, domain.ErrWorkflowBusy):
		return http.StatusConflict, "WORKFLOW_BUSY", domain.ErrWorkflowBusy.Error()
	case errors.Is(err, domain.ErrResetRequired):
		return http.StatusConflict, "RESET_REQUIRED", domain.ErrResetRequired.Error()
	case errors.Is(err, domain.ErrReportNotReady):
		return http.StatusConflict, "REPORT_NOT_READY", domain.ErrReportNotReady.Error()
	case errors.Is(err, domain.ErrNoValidFiles):
		return http.StatusBadRequest, "NO_VALID_FILES", domain.ErrNoValidFiles.Error()
	case errors.Is(err, domain.ErrCapacityReached):
		return http.StatusBadRequest, "CAPACITY_REACHED", domain.ErrCapacityReached.Error()
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", domain.ErrServiceUnavailable.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
