// Package logger is the logrus-backed structured logger shared by the service.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// TraceIDKey is the context key type for trace ids.
type TraceIDKey string

const ContextKeyTraceID TraceIDKey = "trace_id"

// Logger is the logging surface used across the service. Messages are
// printf-style; the Context variants add the trace_id carried by ctx.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})

	DebugContext(ctx context.Context, format string, args ...interface{})
	InfoContext(ctx context.Context, format string, args ...interface{})
	WarnContext(ctx context.Context, format string, args ...interface{})
	ErrorContext(ctx context.Context, format string, args ...interface{})
	FatalContext(ctx context.Context, format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	GetOutput() io.Writer
}

// Config selects level, format and destinations for NewLogger.
type Config struct {
	Level       string
	ServiceName string
	// FilePath, when set, receives a copy of every entry.
	FilePath   string
	JSONFormat bool
	// Output defaults to stdout.
	Output io.Writer
}

type logrusLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewLogger builds a Logger from cfg. An unknown level falls back to info.
func NewLogger(cfg Config) (Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSONFormat {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, file)
	}
	l.SetOutput(out)

	fields := logrus.Fields{}
	if cfg.ServiceName != "" {
		fields["service"] = cfg.ServiceName
	}
	return &logrusLogger{logger: l, fields: fields}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusLogger{logger: l, fields: logrus.Fields{}}
}

// GenerateTraceID returns a new random trace id.
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores traceID in ctx for the *Context log methods.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, traceID)
}

// GetTraceID returns the trace id stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(ContextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func (l *logrusLogger) contextFields(ctx context.Context) logrus.Fields {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	return fields
}

func (l *logrusLogger) with(extra logrus.Fields) Logger {
	fields := make(logrus.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &logrusLogger{logger: l.logger, fields: fields}
}

func (l *logrusLogger) GetOutput() io.Writer {
	return l.logger.Out
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return l.with(logrus.Fields{key: value})
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return l.with(logrus.Fields(fields))
}

func (l *logrusLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.with(logrus.Fields{"error": err.Error()})
}

func (l *logrusLogger) Debug(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Debugf(format, args...)
}

func (l *logrusLogger) Info(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Infof(format, args...)
}

func (l *logrusLogger) Warn(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Warnf(format, args...)
}

func (l *logrusLogger) Error(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Errorf(format, args...)
}

func (l *logrusLogger) Fatal(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Fatalf(format, args...)
}

func (l *logrusLogger) DebugContext(ctx context.Context, format string, args ...interface{}) {
	l.logger.WithFields(l.contextFields(ctx)).Debugf(format, args...)
}

func (l *logrusLogger) InfoContext(ctx context.Context, format string, args ...interface{}) {
	l.logger.WithFields(l.contextFields(ctx)).Infof(format, args...)
}

func (l *logrusLogger) WarnContext(ctx context.Context, format string, args ...interface{}) {
	l.logger.WithFields(l.contextFields(ctx)).Warnf(format, args...)
}

func (l *logrusLogger) ErrorContext(ctx context.Context, format string, args ...interface{}) {
	l.logger.WithFields(l.contextFields(ctx)).Errorf(format, args...)
}

func (l *logrusLogger) FatalContext(ctx context.Context, format string, args ...interface{}) {
	l.logger.WithFields(l.contextFields(ctx)).Fatalf(format, args...)
}
