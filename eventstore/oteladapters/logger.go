// Package oteladapters implements the eventstore observability interfaces on top of OpenTelemetry.
//
// The same adapters serve the lending command handlers, which use the eventstore interfaces
// for their own logging, metrics and tracing.
package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

// SlogBridgeLogger is a ContextualLogger that writes through the OpenTelemetry slog bridge,
// so records carry the trace and span id of the context they were logged with.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger uses the global LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithOptions passes options (e.g. otelslog.WithLoggerProvider) to the bridge.
func NewSlogBridgeLoggerWithOptions(name string, options ...otelslog.Option) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name, options...)}
}

func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// Slog exposes the underlying logger, e.g. for the HTTP access log.
func (l *SlogBridgeLogger) Slog() *slog.Logger {
	return l.logger
}

var _ eventstore.ContextualLogger = (*SlogBridgeLogger)(nil)
