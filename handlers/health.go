package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	downloadDir func() string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(downloadDir func() string) *HealthHandler {
	return &HealthHandler{downloadDir: downloadDir}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "songfetch",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":           "songfetch API is running",
		"download_location": h.downloadDir(),
	})
}
