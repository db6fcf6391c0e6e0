package middleware

import (
	"time" // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestLogger writes one structured log entry per request
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start time of the request
		c.Next()            // Process the request

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,           // HTTP method
			"path":      c.Request.URL.Path,         // Request path
			"status":    status,                     // Response status
			"latency":   time.Since(start).String(), // Time spent handling
			"client_ip": c.ClientIP(),               // Caller address
		})
		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.String()) // Errors attached by handlers
		case status >= 500:
			entry.Warn("Request failed")
		default:
			entry.Info("Request handled")
		}
	}
}
