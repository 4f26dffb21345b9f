// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"telehealth-agent/internal/common/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "requestID"
)

// requestID keeps a caller-supplied id or assigns a fresh uuid.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveHTTP(route, status)

		fields := map[string]interface{}{
			"requestId":  c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", fields)
			return
		}
		s.logger.Info("request served", fields)
	}
}
