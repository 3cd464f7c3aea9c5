package middleware

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Logger logs one line per inbound request. Response bodies are only logged
// in debug mode since search results can be large.
func Logger(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var w *responseBodyWriter
		if debug {
			w = &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
			c.Writer = w
		}

		t0 := time.Now()

		c.Next()

		body := "<redacted>"
		if w != nil {
			body = w.body.String()
		}

		logFields := []any{
			slog.Group("http",
				slog.Group("request",
					"duration_ms", time.Since(t0).Milliseconds(),
					"method", c.Request.Method,
					"route", c.FullPath(),
					"client_ip", c.ClientIP(),
					"content_length", c.Request.ContentLength,
					"user_agent", c.Request.UserAgent(),
					slog.Group("url",
						"path", c.Request.URL.Path,
						"query_params", c.Request.URL.Query(),
					),
				),
				slog.Group("response",
					"status", c.Writer.Status(),
					"size", c.Writer.Size(),
					"body", body,
				),
			),
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}

		slog.Log(c.Request.Context(), level, "inbound request", logFields...)
	}
}
