// SPDX-License-Identifier: AGPL-3.0-only
package middleware

import (
	"time"

	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware labels by route template so ids do not explode the
// label set.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
