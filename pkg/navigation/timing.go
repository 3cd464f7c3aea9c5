package navigation

import (
	"context"
	"log/slog"
	"time"
)

// timed logs how long an operation took and whether it failed. Use it as
// `defer timed(ctx, "op")(&err)` with a named error return.
func timed(ctx context.Context, op string, args ...any) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		fields := append([]any{"op", op, "duration_ms", time.Since(start).Milliseconds()}, args...)

		if errp != nil && *errp != nil {
			slog.DebugContext(ctx, "operation failed", append(fields, "error", (*errp).Error())...)
			return
		}

		slog.DebugContext(ctx, "operation completed", fields...)
	}
}
