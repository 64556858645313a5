package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"songfetch/services"
	"songfetch/types"
	"songfetch/websocket"
)

// DownloadHandler handles single downloads, batch jobs and their progress
type DownloadHandler struct {
	orchestrator services.Orchestrator
	jobQueue     services.JobQueue
	hub          websocket.Hub
	upgrader     gorilla.Upgrader
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(orchestrator services.Orchestrator, jq services.JobQueue, hub websocket.Hub, upgrader gorilla.Upgrader) *DownloadHandler {
	return &DownloadHandler{
		orchestrator: orchestrator,
		jobQueue:     jq,
		hub:          hub,
		upgrader:     upgrader,
	}
}

type downloadRequest struct {
	VideoID string `json:"videoId"`
	Format  string `json:"format"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// Download fetches one video synchronously and returns its manifest entry
func (h *DownloadHandler) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	format, err := types.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid format",
			"details": err.Error(),
		})
		return
	}

	refs := services.ValidReferences(services.ParseReferences(req.VideoID))
	if len(refs) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "a single valid video ID or URL is required",
		})
		return
	}

	entry, err := h.orchestrator.DownloadOne(c.Request.Context(), refs[0].CanonicalID, format, services.NameHint{
		Title:  req.Title,
		Artist: req.Artist,
	})
	if err != nil {
		log.Printf("[downloads] %s: %v", refs[0].CanonicalID, err)
		respondError(c, "download failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"filename":    entry.OutputFilename,
		"downloadUrl": entry.RetrievalLocator,
		"entry":       entry,
	})
}

type batchRequest struct {
	Text     string   `json:"text"`
	VideoIDs []string `json:"videoIds"`
	Format   string   `json:"format"`
}

// QueueBatch parses pasted text (or a list of ids) and queues a batch job.
// Invalid tokens are reported back alongside the job.
func (h *DownloadHandler) QueueBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	format, err := types.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid format",
			"details": err.Error(),
		})
		return
	}

	text := req.Text
	if len(req.VideoIDs) > 0 {
		text = strings.TrimSpace(text + "\n" + strings.Join(req.VideoIDs, "\n"))
	}
	refs := services.ParseReferences(text)

	job, err := h.jobQueue.Submit(refs, format)
	if err != nil {
		respondError(c, "failed to queue batch", err)
		return
	}

	invalid := []types.ParsedReference{}
	for _, ref := range refs {
		if !ref.Valid {
			invalid = append(invalid, ref)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Batch download queued successfully",
		"job":     job,
		"invalid": invalid,
	})
}

// GetAllJobs returns all batch jobs
func (h *DownloadHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific batch job by ID
func (h *DownloadHandler) GetJob(c *gin.Context) {
	job, exists := h.jobQueue.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a queued job or stops a running one after its current item
func (h *DownloadHandler) CancelJob(c *gin.Context) {
	if !h.jobQueue.CancelJob(c.Param("jobId")) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already finished)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancellation requested",
	})
}

// HandleWebSocketConnection streams progress for one job
func (h *DownloadHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if _, exists := h.jobQueue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	h.serveWebSocket(c, jobID)
}

// HandleWebSocketAllConnection streams progress for every job
func (h *DownloadHandler) HandleWebSocketAllConnection(c *gin.Context) {
	h.serveWebSocket(c, websocket.AllJobs)
}

func (h *DownloadHandler) serveWebSocket(c *gin.Context, jobID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, jobID)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
