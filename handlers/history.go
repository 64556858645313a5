package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"songfetch/types"
)

// HistoryReader exposes stored history
type HistoryReader interface {
	SearchHistory() ([]types.SearchRecord, error)
	DownloadHistory() ([]types.DownloadRecord, error)
}

// HistoryHandler handles history endpoints
type HistoryHandler struct {
	history HistoryReader
}

// NewHistoryHandler creates a new history handler. history may be nil when
// persistence is unavailable; the endpoints then return empty lists.
func NewHistoryHandler(history HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Searches returns recent searches
func (h *HistoryHandler) Searches(c *gin.Context) {
	records := []types.SearchRecord{}
	if h.history != nil {
		var err error
		if records, err = h.history.SearchHistory(); err != nil {
			respondError(c, "failed to load search history", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"searches": records, "total": len(records)})
}

// Downloads returns recent downloads
func (h *HistoryHandler) Downloads(c *gin.Context) {
	records := []types.DownloadRecord{}
	if h.history != nil {
		var err error
		if records, err = h.history.DownloadHistory(); err != nil {
			respondError(c, "failed to load download history", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"downloads": records, "total": len(records)})
}
