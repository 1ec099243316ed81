package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// Request header names carrying a caller-provided trace id.
const (
	TraceIDHeader     = "X-Trace-ID"
	TraceParentHeader = "traceparent"
)

// Gin context keys set by middleware in this package.
const (
	ContextKeyTraceID = "trace_id"
	ContextKeyUserID  = "user_id"
)

// GetTraceID returns the id used to correlate log lines for this request.
// The active span wins, then a W3C traceparent header, then X-Trace-ID, and
// finally a freshly generated id.
func GetTraceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if tp := c.GetHeader(TraceParentHeader); tp != "" {
		// 00-<trace_id>-<parent_id>-<flags>
		if parts := strings.Split(tp, "-"); len(parts) == 4 && len(parts[1]) == 32 {
			return parts[1]
		}
	}
	if id := c.GetHeader(TraceIDHeader); id != "" {
		return id
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LoggingMiddleware attaches a request-scoped zerolog logger to the request
// context and writes one line per request. Traced requests log the span's
// trace_id and span_id; untraced ones fall back to GetTraceID.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		traceID := GetTraceID(c)
		c.Set(ContextKeyTraceID, traceID)
		c.Header(TraceIDHeader, traceID)

		ctx := pkgzerolog.WithContext(c.Request.Context())
		if !trace.SpanContextFromContext(ctx).IsValid() {
			l := pkgzerolog.FromContext(ctx).With().Str("trace_id", traceID).Logger()
			ctx = l.WithContext(ctx)
		}
		c.Request = c.Request.WithContext(ctx)
		logger := pkgzerolog.FromContext(ctx)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		if userID := c.GetString(ContextKeyUserID); userID != "" {
			event = event.Str("user_id", userID)
		}
		if q := c.Request.URL.RawQuery; q != "" {
			event = event.Str("query", q)
		}
		event.
			Str("method", method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("HTTP request")
	}
}
