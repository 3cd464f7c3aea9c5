package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
)

type CtxKey string

const CtxKeyTraceID CtxKey = "trace_id"

// HeaderTraceID echoes the trace ID back so clients can quote it when
// reporting problems.
const HeaderTraceID = "X-Trace-Id"

func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := ksuid.New().String()
		ctx := context.WithValue(c.Request.Context(), CtxKeyTraceID, traceID)
		c.Request = c.Request.Clone(ctx)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(CtxKeyTraceID).(string)
	return traceID, ok
}
