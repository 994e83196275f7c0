package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore/oteladapters"
)

func givenTracingCollector(t *testing.T) (*oteladapters.TracingCollector, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("test")), recorder
}

func Test_TracingCollector_RecordsSpanWithAttributesAndStatus(t *testing.T) {
	// arrange
	collector, recorder := givenTracingCollector(t)

	// act
	_, span := collector.StartSpan(context.Background(), "eventstore.append", map[string]string{"event_count": "2"})
	collector.FinishSpan(span, "success", map[string]string{"engine": "memory"})

	// assert
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "eventstore.append", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("event_count", "2"))
	assert.Contains(t, ended[0].Attributes(), attribute.String("engine", "memory"))
}

func Test_TracingCollector_MapsConflictToErrorStatus(t *testing.T) {
	collector, recorder := givenTracingCollector(t)

	_, span := collector.StartSpan(context.Background(), "eventstore.append", nil)
	collector.FinishSpan(span, "concurrency_conflict", nil)

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Error, recorder.Ended()[0].Status().Code)
}

func Test_TracingCollector_KeepsBusinessRejectionsOutOfErrorStatus(t *testing.T) {
	collector, recorder := givenTracingCollector(t)

	_, span := collector.StartSpan(context.Background(), "command.create_request", nil)
	collector.FinishSpan(span, "rejected", nil)

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
	assert.Contains(t, recorder.Ended()[0].Attributes(), attribute.String("status", "rejected"))
}

func Test_TracingCollector_NestsChildSpans(t *testing.T) {
	collector, recorder := givenTracingCollector(t)

	ctx, parent := collector.StartSpan(context.Background(), "command", nil)
	_, child := collector.StartSpan(ctx, "eventstore.query", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func Test_MetricsCollector_RecordsInstruments(t *testing.T) {
	// arrange
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("test"))
	labels := map[string]string{"operation": "append"}

	// act
	collector.RecordDuration("eventstore_append_duration_seconds", 25*time.Millisecond, labels)
	collector.IncrementCounter("eventstore_events_appended_total", labels)
	collector.IncrementCounterContext(context.Background(), "eventstore_events_appended_total", labels)
	collector.RecordValue("eventstore_events_queried_total", 3, labels)

	// assert
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	require.Contains(t, byName, "eventstore_append_duration_seconds")
	require.Contains(t, byName, "eventstore_events_queried_total")

	counter, ok := byName["eventstore_events_appended_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(2), counter.DataPoints[0].Value)
}

func Test_SlogBridgeLogger_ExposesLogger(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("lending")

	assert.NotNil(t, logger.Slog())
	logger.InfoContext(context.Background(), "started", "component", "test")
}
