package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request. Handlers may attach extra
// fields with SetLogField.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			if m, ok := extra.(map[string]any); ok {
				for k, v := range m {
					fields[k] = v
				}
			}
		}
		telemetry.Info("request.complete", fields)
	}
}

const logFieldsKey = "logFields"

// SetLogField adds a field to the request.complete log line.
func SetLogField(c *gin.Context, key string, value any) {
	m, _ := c.Get(logFieldsKey)
	fields, ok := m.(map[string]any)
	if !ok {
		fields = map[string]any{}
		c.Set(logFieldsKey, fields)
	}
	fields[key] = value
}
