package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"songfetch/config"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	cfg *config.Config
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{cfg: cfg}
}

// GetSettings returns the effective settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	if _, err := config.LoadSettings(h.cfg.SettingsPath()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, config.UserSettings{DownloadLocation: h.cfg.DownloadDir()})
}

// UpdateSettings validates and stores new settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings config.UserSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if err := config.SaveSettings(h.cfg.SettingsPath(), settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid download location",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": config.UserSettings{DownloadLocation: h.cfg.DownloadDir()},
	})
}
