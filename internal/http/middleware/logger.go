package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger emits one line per request. Handler errors collected on the gin
// context escalate the line to error level.
func Logger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		evt := l.Info()
		if len(c.Errors) > 0 {
			evt = l.Error().Str("errors", c.Errors.String())
		}

		rid, _ := c.Get(RequestIDHeader)
		evt.
			Str("request_id", rid.(string)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Msg("request")
	}
}
