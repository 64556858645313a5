package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"songfetch/services"
	"songfetch/types"
)

// SearchHandler handles search and reference parsing endpoints
type SearchHandler struct {
	resolver services.Resolver
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(resolver services.Resolver) *SearchHandler {
	return &SearchHandler{resolver: resolver}
}

// Search resolves a free-text query. No matches is a normal, empty answer.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter 'q' is required",
		})
		return
	}

	sort := c.DefaultQuery("sort", string(types.SortRelevance))
	if sort != string(types.SortRelevance) && sort != string(types.SortDate) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sort parameter must be 'relevance' or 'date'",
		})
		return
	}

	outcome, err := h.resolver.Resolve(c.Request.Context(), query, types.ParseSortOrder(sort))
	if services.IsResolutionKind(err, services.NoMatches) {
		c.JSON(http.StatusOK, gin.H{
			"query":        query,
			"mainResult":   nil,
			"otherResults": []types.CanonicalTrack{},
			"message":      "No results found",
		})
		return
	}
	if err != nil {
		log.Printf("[search] %q: %v", query, err)
		respondError(c, "search failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":        query,
		"mainResult":   outcome.Primary,
		"otherResults": outcome.Alternatives,
		"strategy":     outcome.Strategy,
	})
}

type parseRequest struct {
	Text string `json:"text"`
}

// ParseReferences validates pasted text without downloading anything
func (h *SearchHandler) ParseReferences(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	refs := services.ParseReferences(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"references": refs,
		"valid":      len(services.ValidReferences(refs)),
		"total":      len(refs),
	})
}
