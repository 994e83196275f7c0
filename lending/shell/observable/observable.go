// Package observable instruments command and query handlers with metrics, tracing and logging.
//
// The handlers themselves stay free of observability code: they are passed in as a function and
// their HandlerResult and error are translated into metric labels, span status and log records.
package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
)

// Command runs handle for a command of commandType and records its outcome.
func Command[R any](
	ctx context.Context,
	obs shell.Observability,
	commandType string,
	handle func(ctx context.Context) (R, shell.HandlerResult, error),
) (R, shell.HandlerResult, error) {

	start := time.Now()
	ctx, span := obs.StartSpan(ctx, shell.SpanNameCommandHandle, map[string]string{shell.LogAttrCommandType: commandType})
	obs.Debug(ctx, shell.LogMsgCommandStarted, shell.LogAttrCommandType, commandType)

	result, handlerResult, err := handle(ctx)

	duration := time.Since(start)
	status := shell.StatusOf(err, handlerResult.Idempotent)

	obs.RecordCommandMetrics(ctx, commandType, status, duration)
	obs.FinishSpan(span, status, duration, err)

	args := []any{
		shell.LogAttrCommandType, commandType,
		shell.LogAttrBusinessOutcome, status,
		shell.LogAttrRetryAttempts, handlerResult.RetryAttempts,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
	}

	switch status {
	case shell.StatusSuccess, shell.StatusIdempotent:
		obs.Info(ctx, shell.LogMsgCommandCompleted, args...)
	case shell.StatusRejected:
		obs.Info(ctx, shell.LogMsgCommandRejected, append(args, shell.LogAttrError, err.Error())...)
	default:
		obs.Error(ctx, shell.LogMsgCommandFailed, append(args, shell.LogAttrError, err.Error())...)
	}

	return result, handlerResult, err
}

// Query runs handle for a query of queryType and records its outcome.
func Query[R any](
	ctx context.Context,
	obs shell.Observability,
	queryType string,
	handle func(ctx context.Context) (R, error),
) (R, error) {

	start := time.Now()
	ctx, span := obs.StartSpan(ctx, shell.SpanNameQueryHandle, map[string]string{shell.LogAttrQueryType: queryType})

	result, err := handle(ctx)

	duration := time.Since(start)
	status := shell.StatusOf(err, false)

	obs.RecordQueryMetrics(ctx, queryType, status, duration)
	obs.FinishSpan(span, status, duration, err)

	if status == shell.StatusError || status == shell.StatusTimeout || status == shell.StatusCanceled {
		obs.Error(ctx, shell.LogMsgQueryFailed, shell.LogAttrQueryType, queryType, shell.LogAttrError, err.Error())
	} else {
		obs.Debug(ctx, shell.LogMsgQueryCompleted,
			shell.LogAttrQueryType, queryType,
			shell.LogAttrStatus, status,
			shell.LogAttrDurationMS, shell.ToMilliseconds(duration))
	}

	return result, err
}
