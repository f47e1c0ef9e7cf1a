package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sentiscope/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	analysis port.AnalysisService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(analysis port.AnalysisService) *HealthHandler {
	return &HealthHandler{analysis: analysis}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.analysis.CheckAvailability(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "analysis service not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
