package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoscan/internal/schema"
	"invoscan/internal/service"
)

// ProcessHandler serves single-document extraction.
type ProcessHandler struct {
	svc *service.ProcessService
}

// NewProcessHandler creates a ProcessHandler.
func NewProcessHandler(svc *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{svc: svc}
}

type processRequest struct {
	FileURL  string `json:"fileUrl"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Location string `json:"location"`
	UseBatch *bool  `json:"useBatch"`
	Reset    bool   `json:"reset"`
}

// Process handles POST /api/v1/process.
func (h *ProcessHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	if req.Prompt == "" {
		req.Prompt = schema.BuildPrompt()
	}

	result, err := h.svc.ProcessFile(c.Request.Context(), service.ProcessInput{
		FileURL:  req.FileURL,
		Prompt:   req.Prompt,
		Model:    req.Model,
		Location: req.Location,
		UseBatch: req.UseBatch,
		Reset:    req.Reset,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
