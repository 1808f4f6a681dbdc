// Package rolloutlog wraps zap into the service logger used by the CLI,
// and bridges it into log/slog so algorithmic code (orchestrator, retry,
// rollback) can log through the standard library without depending on
// zap directly.
package rolloutlog

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Logger is the service-wide structured logger.
type Logger struct {
	*zap.Logger
}

// Config configures the service logger.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Output  string // stdout, stderr, or a file path
	Version string
}

// Init initializes the global logger and installs it as the default
// slog handler, so slog.Info/Warn/Error calls anywhere in the process
// flow through the same sink. Safe to call once at process start; later
// calls are no-ops.
func Init(cfg Config) *Logger {
	once.Do(func() {
		globalLogger = New(cfg)
		slog.SetDefault(slog.New(NewHandler(globalLogger.Logger)))
	})
	return globalLogger
}

// Get returns the global logger, initializing it with defaults if Init
// was never called.
func Get() *Logger {
	if globalLogger == nil {
		return Init(Config{Level: "info", Format: "json", Output: "stderr"})
	}
	return globalLogger
}

// New builds a standalone Logger from cfg, independent of the global
// singleton; used by tests that want an isolated sink.
func New(cfg Config) *Logger {
	level := zapcore.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var output zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stderr":
		output = zapcore.AddSync(os.Stderr)
	case "stdout":
		output = zapcore.AddSync(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			output = zapcore.AddSync(os.Stderr)
		} else {
			output = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, output, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	fields := []zap.Field{zap.String("service", "rolloutctl")}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}

	return &Logger{Logger: logger.With(fields...)}
}

// With returns a child logger carrying additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.With(zap.Error(err))
}
