package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"songfetch/services"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case services.IsResolutionKind(err, services.ProviderUnavailable),
		errors.Is(err, services.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrQueueFull):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
