package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"go.opentelemetry.io/otel/trace"
)

type LoggerAdapter struct {
	logger *slog.Logger
}

// NewLoggerAdapter writes JSON in production and human-readable text
// everywhere else.
func NewLoggerAdapter(env string) *LoggerAdapter {
	return newLoggerAdapter(env, os.Stdout)
}

func newLoggerAdapter(env string, w io.Writer) *LoggerAdapter {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return &LoggerAdapter{logger: slog.New(handler)}
}

func (l *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.log(context.Background(), slog.LevelDebug, msg, fields)
}

func (l *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.log(context.Background(), slog.LevelInfo, msg, fields)
}

func (l *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.log(context.Background(), slog.LevelWarn, msg, fields)
}

func (l *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.log(context.Background(), slog.LevelError, msg, fields)
}

// The *GRPC variants attach the active trace and span ids, if any.

func (l *LoggerAdapter) DebugGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, slog.LevelDebug, msg, withTrace(ctx, fields))
}

func (l *LoggerAdapter) InfoGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, slog.LevelInfo, msg, withTrace(ctx, fields))
}

func (l *LoggerAdapter) WarnGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, slog.LevelWarn, msg, withTrace(ctx, fields))
}

func (l *LoggerAdapter) ErrorGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, slog.LevelError, msg, withTrace(ctx, fields))
}

func (l *LoggerAdapter) log(ctx context.Context, level slog.Level, msg string, fields map[string]interface{}) {
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.LogAttrs(ctx, level, msg, toAttrs(fields)...)
}

// toAttrs sorts keys so output is stable.
func toAttrs(fields map[string]interface{}) []slog.Attr {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}

func withTrace(ctx context.Context, fields map[string]interface{}) map[string]interface{} {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return fields
	}
	out := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["trace_id"] = sc.TraceID().String()
	out["span_id"] = sc.SpanID().String()
	return out
}
