package middleware

import (
	"context" // Request deadlines
	"time"    // Durations

	"github.com/gin-gonic/gin" // Gin web framework
)

// Timeout puts a deadline on the request context. Ledger operations run
// with this context, so an expired request rolls back instead of committing late.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A non-positive duration disables the deadline
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx) // Swap in the bounded context
		c.Next()
	}
}
