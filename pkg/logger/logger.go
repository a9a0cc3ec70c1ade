// Package logger builds the service's logrus logger and carries a per-request
// entry through the request context.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDHeader carries the request id in and out of the chat API
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

type requestScope struct {
	id    string
	entry *logrus.Entry
}

// NewLogger creates the service logger. An empty level means info.
func NewLogger(cfg *config.LoggingConfig) (*logrus.Logger, error) {
	log := logrus.New()

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(formatter(cfg.Format))

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}
	log.SetOutput(out)
	return log, nil
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "msg",
			},
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: time.DateTime,
		FullTimestamp:   true,
	}
}

func output(cfg *config.LoggingConfig) (io.Writer, error) {
	switch cfg.Output {
	case "stderr":
		return os.Stderr, nil
	case "file":
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("logging file path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		// rotation sizes are megabytes, ages are days
		return &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   true,
		}, nil
	default:
		return os.Stdout, nil
	}
}

// Middleware tags every request with an id (taken from RequestIDHeader or
// generated), stores a request entry in the context and logs the outcome.
func Middleware(base *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			entry := base.WithField("request_id", requestID)
			ctx := context.WithValue(r.Context(), ctxKey{}, requestScope{id: requestID, entry: entry})

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))

			entry.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start).String(),
			}).Debug("Handled request")
		})
	}
}

// FromContext returns the request entry stored by Middleware, or a plain entry on fallback
func FromContext(ctx context.Context, fallback *logrus.Logger) *logrus.Entry {
	if scope, ok := ctx.Value(ctxKey{}).(requestScope); ok {
		return scope.entry
	}
	return logrus.NewEntry(fallback)
}

// RequestID returns the id assigned by Middleware
func RequestID(ctx context.Context) string {
	scope, _ := ctx.Value(ctxKey{}).(requestScope)
	return scope.id
}

// WithUser scopes the request entry in ctx to one chat user
func WithUser(ctx context.Context, fallback *logrus.Logger, userID string) *logrus.Entry {
	return FromContext(ctx, fallback).WithField("user_id", userID)
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
