package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	ApplicationIDKey    = "applicationId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if actor, ok := ActorFromContext(c); ok {
			fields["role"] = actor.Role.String()
		}
		if id, ok := c.Get(ApplicationIDKey); ok {
			fields["application_id"] = id
		}
		if raw, ok := c.Get(StatusTransitionKey); ok {
			if s, ok := raw.(string); ok {
				fields["status_transition"] = s
			}
		}

		telemetry.Info("request.complete", fields)
	}
}
