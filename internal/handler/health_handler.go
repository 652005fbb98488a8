package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"invoscan/internal/port"
	"invoscan/internal/service"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store port.DocumentStore
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store port.DocumentStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. It checks that the document store answers.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.List(ctx, service.CollectionSampling, 1); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ready"})
}
