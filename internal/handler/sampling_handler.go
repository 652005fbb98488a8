package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoscan/internal/service"
)

// SamplingHandler serves batch extraction runs and record retries.
type SamplingHandler struct {
	svc *service.SamplingService
}

// NewSamplingHandler creates a SamplingHandler.
func NewSamplingHandler(svc *service.SamplingService) *SamplingHandler {
	return &SamplingHandler{svc: svc}
}

type driveRequest struct {
	Folder      string `json:"folder"`
	FolderID    string `json:"folderId"`
	FolderLink  string `json:"folderIdOrLink"`
	Limit       int    `json:"limit"`
	Count       int    `json:"count"`
	Concurrency int    `json:"concurrency"`
	Tag         string `json:"tag"`
}

// RunDrive handles POST /api/v1/sampling/drive.
func (h *SamplingHandler) RunDrive(c *gin.Context) {
	var req driveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	folder := req.Folder
	if folder == "" {
		folder = req.FolderID
	}
	if folder == "" {
		folder = req.FolderLink
	}
	limit := req.Limit
	if limit == 0 {
		limit = req.Count
	}

	result, err := h.svc.RunDrive(c.Request.Context(), folder, limit, req.Concurrency, req.Tag)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

type zohoRequest struct {
	ReportURL   string `json:"reportUrl"`
	Count       int    `json:"count"`
	Concurrency int    `json:"concurrency"`
	Tag         string `json:"tag"`
}

// RunZoho handles POST /api/v1/sampling/zoho.
func (h *SamplingHandler) RunZoho(c *gin.Context) {
	var req zohoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	result, err := h.svc.RunZoho(c.Request.Context(), req.ReportURL, req.Count, req.Concurrency, req.Tag)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

type retryRequest struct {
	RecordID string `json:"recordId"`
	Location string `json:"location"`
	UseBatch bool   `json:"useBatch"`
}

// Retry handles POST /api/v1/sampling/retry.
func (h *SamplingHandler) Retry(c *gin.Context) {
	var req retryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	result, err := h.svc.RetryRecord(c.Request.Context(), service.RetryInput{
		RecordID: req.RecordID,
		Location: req.Location,
		UseBatch: req.UseBatch,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
