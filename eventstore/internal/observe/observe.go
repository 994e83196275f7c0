// Package observe holds the logging, metrics and tracing plumbing shared by the event store engines.
// Every collaborator is optional; a zero Instrumentation does nothing.
package observe

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

const (
	MetricQueryDuration       = "eventstore_query_duration_seconds"
	MetricAppendDuration      = "eventstore_append_duration_seconds"
	MetricEventsQueried       = "eventstore_events_queried_total"
	MetricEventsAppended      = "eventstore_events_appended_total"
	MetricConcurrencyConflict = "eventstore_concurrency_conflicts_total"
	MetricDatabaseErrors      = "eventstore_database_errors_total"

	SpanNameQuery  = "eventstore.query"
	SpanNameAppend = "eventstore.append"

	OperationQuery  = "query"
	OperationAppend = "append"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusConflict = "concurrency_conflict"

	AttrOperation  = "operation"
	AttrStatus     = "status"
	AttrEngine     = "engine"
	AttrErrorType  = "error_type"
	AttrEventCount = "event_count"
	AttrFilter     = "filter"
	AttrError      = "error"
	AttrDurationMS = "duration_ms"
)

// Instrumentation bundles the optional observability collaborators of an engine.
type Instrumentation struct {
	Engine           string
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Debug logs at debug level, preferring the contextual logger.
func (in Instrumentation) Debug(ctx context.Context, msg string, args ...any) {
	switch {
	case in.ContextualLogger != nil:
		in.ContextualLogger.DebugContext(ctx, msg, args...)
	case in.Logger != nil:
		in.Logger.Debug(msg, args...)
	}
}

// Info logs at info level, preferring the contextual logger.
func (in Instrumentation) Info(ctx context.Context, msg string, args ...any) {
	switch {
	case in.ContextualLogger != nil:
		in.ContextualLogger.InfoContext(ctx, msg, args...)
	case in.Logger != nil:
		in.Logger.Info(msg, args...)
	}
}

// Warn logs at warn level, preferring the contextual logger.
func (in Instrumentation) Warn(ctx context.Context, msg string, args ...any) {
	switch {
	case in.ContextualLogger != nil:
		in.ContextualLogger.WarnContext(ctx, msg, args...)
	case in.Logger != nil:
		in.Logger.Warn(msg, args...)
	}
}

// Error logs at error level with the error as an attribute, preferring the contextual logger.
func (in Instrumentation) Error(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{AttrError, err.Error()}, args...)

	switch {
	case in.ContextualLogger != nil:
		in.ContextualLogger.ErrorContext(ctx, msg, allArgs...)
	case in.Logger != nil:
		in.Logger.Error(msg, allArgs...)
	}
}

// RecordDuration records an operation duration labelled with the operation and status.
func (in Instrumentation) RecordDuration(ctx context.Context, metric string, d time.Duration, operation, status string) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrEngine: in.Engine, AttrOperation: operation, AttrStatus: status}

	if contextual, ok := in.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	in.Metrics.RecordDuration(metric, d, labels)
}

// RecordValue records a gauge value labelled with the operation.
func (in Instrumentation) RecordValue(ctx context.Context, metric string, value float64, operation string) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrEngine: in.Engine, AttrOperation: operation}

	if contextual, ok := in.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	in.Metrics.RecordValue(metric, value, labels)
}

// IncrementCounter increments a counter labelled with the operation and any extra labels.
func (in Instrumentation) IncrementCounter(ctx context.Context, metric string, operation string, extra map[string]string) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrEngine: in.Engine, AttrOperation: operation}
	for k, v := range extra {
		labels[k] = v
	}

	if contextual, ok := in.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	in.Metrics.IncrementCounter(metric, labels)
}

// StartSpan starts a span if tracing is configured. The returned SpanContext may be nil.
func (in Instrumentation) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	if in.Tracing == nil {
		return ctx, nil
	}

	return in.Tracing.StartSpan(ctx, name, attrs)
}

// FinishSpan finishes span with the status and attrs. A nil span is ignored.
func (in Instrumentation) FinishSpan(span eventstore.SpanContext, status string, attrs map[string]string) {
	if in.Tracing == nil || span == nil {
		return
	}

	in.Tracing.FinishSpan(span, status, attrs)
}

// ErrorType classifies err for metric labels.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	case errors.Is(err, eventstore.ErrQueryingEventsFailed), errors.Is(err, eventstore.ErrAppendingEventFailed):
		return "database"
	default:
		return "other"
	}
}

// Milliseconds converts d to float64 milliseconds with 3 decimal places.
func Milliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
