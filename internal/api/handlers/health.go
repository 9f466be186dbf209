package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store  *storage.Store
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *storage.Store, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// GetHealth returns the service health including storage status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	mongo := h.store.Health()

	status := http.StatusOK
	overall := "healthy"
	if mongo["status"] != "healthy" {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now(),
		"checks": gin.H{
			"mongodb": mongo,
		},
	})
}

// GetLiveness is a trivial liveness probe
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now()})
}
