package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Common field names
const (
	FieldComponent = "component"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
	FieldUserID    = "user_id"
)

// New builds the root logger. format is "json" or "console"; an unknown
// level falls back to info.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child logger tagged with name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}

// UserFunc reports the authenticated user of a request, if any.
type UserFunc func(c *gin.Context) (string, bool)

// Middleware logs one line per request. 5xx responses are logged at error
// level, 4xx at warn. user may be nil.
func Middleware(l zerolog.Logger, user UserFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		default:
			event = l.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		if user != nil {
			if uid, ok := user(c); ok {
				event = event.Str(FieldUserID, uid)
			}
		}
		event.
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, path).
			Int(FieldStatus, status).
			Int64(FieldLatency, time.Since(start).Milliseconds()).
			Str(FieldClientIP, c.ClientIP()).
			Msg("request")
	}
}
