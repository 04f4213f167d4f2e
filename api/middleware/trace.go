package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the request trace ID in and out of the service.
const TraceIDHeader = "X-Trace-ID"

const traceIDKey = "trace_id"

// TraceID adopts the caller's trace ID or mints one, and echoes it on the
// response so clients can correlate log lines.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID returns the request's trace ID, or "" outside the middleware.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(traceIDKey); exists {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	return ""
}
