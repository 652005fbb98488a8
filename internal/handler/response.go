package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoscan/internal/domain"
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
	case errors.Is(err, domain.ErrInvalidFileURL):
		return http.StatusBadRequest, "INVALID_FILE_URL", "fileUrl must be an http(s) URL"
	case errors.Is(err, domain.ErrMissingPrompt):
		return http.StatusBadRequest, "MISSING_PROMPT", "prompt must not be empty"
	case errors.Is(err, domain.ErrMissingRecordID):
		return http.StatusBadRequest, "MISSING_RECORD_ID", "recordId must not be empty"
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "RECORD_NOT_FOUND", "record not found"
	case errors.Is(err, domain.ErrRecordMissingURI):
		return http.StatusBadRequest, "RECORD_MISSING_URI", "record has no stored object to retry from"
	case errors.Is(err, domain.ErrInvalidGSURI):
		return http.StatusBadRequest, "INVALID_GS_URI", "gsUri must look like gs://bucket/object"
	case errors.Is(err, domain.ErrInvalidFolder):
		return http.StatusBadRequest, "INVALID_FOLDER", "folder must be a Drive folder ID or folder link"
	case errors.Is(err, domain.ErrMissingReportURL):
		return http.StatusBadRequest, "MISSING_REPORT_URL", "reportUrl must not be empty"
	case errors.Is(err, domain.ErrMissingPrivateLnk):
		return http.StatusBadRequest, "MISSING_PRIVATE_LINK", "report URL carries no private link token"
	case errors.Is(err, domain.ErrNoEligibleFiles):
		return http.StatusNotFound, "NO_ELIGIBLE_FILES", "no files with attachments found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
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
