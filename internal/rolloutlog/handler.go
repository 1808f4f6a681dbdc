package rolloutlog

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Handler is a slog.Handler backed by a zap core, so code that logs
// through log/slog (the orchestrator, retry wrapper, rollback executor)
// shares one sink with the zap-based service logger.
type Handler struct {
	core zapcore.Core
	base zapcore.Entry
	fields []zapcore.Field
}

// NewHandler builds a Handler from an existing zap logger's core.
func NewHandler(l *zap.Logger) *Handler {
	return &Handler{core: l.Core()}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.core.Enabled(toZapLevel(level))
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	entry := zapcore.Entry{
		Level:   toZapLevel(record.Level),
		Time:    record.Time,
		Message: record.Message,
	}

	fields := make([]zapcore.Field, 0, record.NumAttrs()+len(h.fields))
	fields = append(fields, h.fields...)
	record.Attrs(func(a slog.Attr) bool {
		fields = append(fields, zap.Any(a.Key, a.Value.Any()))
		return true
	})

	if ce := h.core.Check(entry, nil); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zapcore.Field, 0, len(attrs)+len(h.fields))
	fields = append(fields, h.fields...)
	for _, a := range attrs {
		fields = append(fields, zap.Any(a.Key, a.Value.Any()))
	}
	return &Handler{core: h.core, fields: fields}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	// Groups are flattened: the orchestrator's log call sites use flat
	// key/value pairs, not nested groups.
	return h
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
