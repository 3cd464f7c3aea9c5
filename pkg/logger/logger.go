package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/manzanit0/mobacesso/pkg/middleware"
)

// InitGlobalSlog installs a JSON logger tagged with the service name as the
// slog default. Debug records are dropped unless debug is set.
func InitGlobalSlog(service string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := NewContextJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	logger = logger.With("service", service)
	slog.SetDefault(logger)
}

// ContextJSONHandler is a JSON handler which also logs the request trace ID,
// when the context carries one.
type ContextJSONHandler struct {
	jsonHandler slog.Handler
}

func NewContextJSONHandler(w io.Writer, opts *slog.HandlerOptions) *ContextJSONHandler {
	return &ContextJSONHandler{slog.NewJSONHandler(w, opts)}
}

func (h *ContextJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.jsonHandler.Enabled(ctx, level)
}

func (h *ContextJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithAttrs(attrs)}
}

func (h *ContextJSONHandler) WithGroup(name string) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithGroup(name)}
}

func (h *ContextJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := middleware.TraceIDFrom(ctx); ok {
		r.AddAttrs(slog.String(string(middleware.CtxKeyTraceID), traceID))
	}

	return h.jsonHandler.Handle(ctx, r)
}
