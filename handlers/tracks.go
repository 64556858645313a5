package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"songfetch/services"
)

// TrackHandler serves per-track metadata, lyrics and previews
type TrackHandler struct {
	retriever services.Retriever
	lyrics    services.LyricsFinder
}

// NewTrackHandler creates a new track handler. lyrics may be nil.
func NewTrackHandler(retriever services.Retriever, lyrics services.LyricsFinder) *TrackHandler {
	return &TrackHandler{retriever: retriever, lyrics: lyrics}
}

// GetTrack looks up one video directly
func (h *TrackHandler) GetTrack(c *gin.Context) {
	id := c.Param("videoId")
	refs := services.ValidReferences(services.ParseReferences(id))
	if len(refs) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid video ID",
		})
		return
	}

	track, err := h.retriever.Lookup(c.Request.Context(), refs[0].CanonicalID)
	if err != nil {
		respondError(c, "lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, track)
}

// GetLyrics returns lyrics for a title and artist
func (h *TrackHandler) GetLyrics(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	artist := strings.TrimSpace(c.Query("artist"))
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameters 'title' and 'artist' are required",
		})
		return
	}
	if h.lyrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "lyrics provider not configured",
		})
		return
	}

	lyrics, err := h.lyrics.GetLyrics(c.Request.Context(), title, artist)
	if err != nil {
		log.Printf("[lyrics] %s / %s: %v", artist, title, err)
		respondError(c, "lyrics lookup failed", err)
		return
	}
	if strings.TrimSpace(lyrics) == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "lyrics not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":  title,
		"artist": artist,
		"lyrics": lyrics,
	})
}

// StreamPreview proxies the audio stream of a video
func (h *TrackHandler) StreamPreview(c *gin.Context) {
	refs := services.ValidReferences(services.ParseReferences(c.Param("videoId")))
	if len(refs) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid video ID",
		})
		return
	}

	body, mimeType, err := h.retriever.OpenPreview(c.Request.Context(), refs[0].CanonicalID)
	if err != nil {
		respondError(c, "failed to open stream", err)
		return
	}
	defer body.Close()

	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	c.Header("Content-Type", mimeType)
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("[stream] %s: %v", refs[0].CanonicalID, err)
	}
}
