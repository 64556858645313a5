package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Logging returns a request logging middleware in the server's log style
func Logging() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(params gin.LogFormatterParams) string {
		line := fmt.Sprintf("[http] %s | %3d | %13v | %15s | %-7s %s",
			params.TimeStamp.Format(time.RFC3339),
			params.StatusCode,
			params.Latency,
			params.ClientIP,
			params.Method,
			params.Path,
		)
		if params.ErrorMessage != "" {
			line += " | " + params.ErrorMessage
		}
		return line + "\n"
	})
}
