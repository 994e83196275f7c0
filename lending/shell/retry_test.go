package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/testutil/observability/testdoubles"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return eventstore.ErrConcurrencyConflict
		}
		return nil
	}

	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_BusinessErrorsFailFast(t *testing.T) {
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return core.NewConflictError("duplicate request")
	}

	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "conflict", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_ExhaustsRetries(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	fn := func(_ context.Context) error { return eventstore.ErrConcurrencyConflict }

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
		shell.WithMetrics(metrics, "CreateRequest"),
	)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)
	assert.Equal(t, 2, metrics.Count(shell.CommandHandlerRetriesMetric, map[string]string{"command_type": "CreateRequest"}))
	assert.Equal(t, 2, metrics.Count(shell.CommandHandlerRetryDelayMetric, nil))
	assert.Equal(t, 1, metrics.Count(shell.CommandHandlerMaxRetriesReachedMetric, map[string]string{"final_error_type": "concurrency_conflict"}))
}

func Test_RetryWithExponentialBackoff_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithMaxAttempts(0))
	assert.ErrorIs(t, err, shell.ErrInvalidMaxAttempts)

	_, err = shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, shell.ErrNegativeBaseDelay)

	_, err = shell.RetryWithExponentialBackoff(ctx, fn, shell.WithJitterFactor(1.5))
	assert.ErrorIs(t, err, shell.ErrInvalidJitterFactor)

	_, err = shell.RetryWithExponentialBackoff(ctx, fn, shell.WithMetrics(nil, "X"))
	assert.ErrorIs(t, err, shell.ErrNilMetricsCollector)

	_, err = shell.RetryWithExponentialBackoff(ctx, fn, shell.WithMetrics(testdoubles.NewMetricsCollectorSpy(), ""))
	assert.ErrorIs(t, err, shell.ErrEmptyCommandType)
}

func Test_StatusOf(t *testing.T) {
	assert.Equal(t, shell.StatusSuccess, shell.StatusOf(nil, false))
	assert.Equal(t, shell.StatusIdempotent, shell.StatusOf(nil, true))
	assert.Equal(t, shell.StatusRejected, shell.StatusOf(core.NewForbiddenError("not owner"), false))
	assert.Equal(t, shell.StatusConcurrencyConflict, shell.StatusOf(core.NewInfrastructureError(eventstore.ErrConcurrencyConflict), false))
	assert.Equal(t, shell.StatusError, shell.StatusOf(core.NewInfrastructureError(errors.New("down")), false))
	assert.Equal(t, shell.StatusTimeout, shell.StatusOf(core.NewInfrastructureError(context.DeadlineExceeded), false))
	assert.Equal(t, shell.StatusCanceled, shell.StatusOf(context.Canceled, false))
}
