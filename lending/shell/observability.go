package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const (
	CommandHandlerDurationMetric            = "commandhandler_handle_duration_seconds"
	CommandHandlerCallsMetric               = "commandhandler_handle_calls_total"
	CommandHandlerIdempotentMetric          = "commandhandler_idempotent_operations_total"
	CommandHandlerRejectedMetric            = "commandhandler_rejected_operations_total"
	CommandHandlerCanceledMetric            = "commandhandler_canceled_operations_total"
	CommandHandlerTimeoutMetric             = "commandhandler_timeout_operations_total"
	CommandHandlerConcurrencyConflictMetric = "commandhandler_concurrency_conflicts_total"
	QueryHandlerDurationMetric              = "queryhandler_handle_duration_seconds"
	QueryHandlerCallsMetric                 = "queryhandler_handle_calls_total"

	// CommandHandlerRetriesMetric counts retries by command_type, attempt_number and error_type.
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric observes backoff delays by command_type and attempt_number.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric counts exhausted retries by command_type and final_error_type.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	StatusSuccess             = "success"
	StatusIdempotent          = "idempotent"
	StatusRejected            = "rejected"
	StatusError               = "error"
	StatusCanceled            = "canceled"
	StatusTimeout             = "timeout"
	StatusConcurrencyConflict = "concurrency_conflict"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected command"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrRetryAttempts   = "retry_attempts"
	LogAttrError           = "error"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// The observability interfaces of the event store are used for handlers as well.

type MetricsCollector = eventstore.MetricsCollector
type ContextualMetricsCollector = eventstore.ContextualMetricsCollector
type TracingCollector = eventstore.TracingCollector
type SpanContext = eventstore.SpanContext
type ContextualLogger = eventstore.ContextualLogger
type Logger = eventstore.Logger

// Observability bundles the optional collaborators of a handler. The zero value disables everything.
type Observability struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// ErrorTypeOf classifies err for metric labels.
func ErrorTypeOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrConflict):
		return "conflict"
	default:
		return "other"
	}
}

// StatusOf maps the outcome of a handler to the status label used in metrics, spans and logs.
// Business rejections are not failures of the handler.
func StatusOf(err error, idempotent bool) string {
	switch {
	case err == nil && idempotent:
		return StatusIdempotent
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		return StatusConcurrencyConflict
	case errors.Is(err, core.ErrInfrastructure):
		return StatusError
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrForbidden), errors.Is(err, core.ErrConflict):
		return StatusRejected
	default:
		return StatusError
	}
}

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{LogAttrCommandType: commandType, LogAttrStatus: status}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{LogAttrQueryType: queryType, LogAttrStatus: status}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		"attempt_number":   strconv.Itoa(attemptNumber),
		"error_type":       errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

var statusCounters = map[string]string{
	StatusIdempotent:          CommandHandlerIdempotentMetric,
	StatusRejected:            CommandHandlerRejectedMetric,
	StatusCanceled:            CommandHandlerCanceledMetric,
	StatusTimeout:             CommandHandlerTimeoutMetric,
	StatusConcurrencyConflict: CommandHandlerConcurrencyConflictMetric,
}

// RecordCommandMetrics records duration and call count of a command, plus the per-status counter.
func (o Observability) RecordCommandMetrics(ctx context.Context, commandType, status string, duration time.Duration) {
	if o.Metrics == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	o.recordDuration(ctx, CommandHandlerDurationMetric, duration, labels)
	o.incrementCounter(ctx, CommandHandlerCallsMetric, labels)

	if metric, ok := statusCounters[status]; ok {
		o.incrementCounter(ctx, metric, labels)
	}
}

// RecordQueryMetrics records duration and call count of a query.
func (o Observability) RecordQueryMetrics(ctx context.Context, queryType, status string, duration time.Duration) {
	if o.Metrics == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	o.recordDuration(ctx, QueryHandlerDurationMetric, duration, labels)
	o.incrementCounter(ctx, QueryHandlerCallsMetric, labels)
}

// StartSpan starts a span named name if tracing is configured. The returned span may be nil.
func (o Observability) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	if o.Tracing == nil {
		return ctx, nil
	}

	return o.Tracing.StartSpan(ctx, name, attrs)
}

// FinishSpan completes span with status, duration and the error text, if any.
func (o Observability) FinishSpan(span SpanContext, status string, duration time.Duration, err error) {
	if o.Tracing == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 2, 64),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	o.Tracing.FinishSpan(span, status, attrs)
}

func (o Observability) Debug(ctx context.Context, msg string, args ...any) {
	switch {
	case o.ContextualLogger != nil:
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	case o.Logger != nil:
		o.Logger.Debug(msg, args...)
	}
}

func (o Observability) Info(ctx context.Context, msg string, args ...any) {
	switch {
	case o.ContextualLogger != nil:
		o.ContextualLogger.InfoContext(ctx, msg, args...)
	case o.Logger != nil:
		o.Logger.Info(msg, args...)
	}
}

func (o Observability) Error(ctx context.Context, msg string, args ...any) {
	switch {
	case o.ContextualLogger != nil:
		o.ContextualLogger.ErrorContext(ctx, msg, args...)
	case o.Logger != nil:
		o.Logger.Error(msg, args...)
	}
}

func (o Observability) recordDuration(ctx context.Context, metric string, d time.Duration, labels map[string]string) {
	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	o.Metrics.RecordDuration(metric, d, labels)
}

func (o Observability) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.Metrics.IncrementCounter(metric, labels)
}
