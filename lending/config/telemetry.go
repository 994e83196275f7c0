package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const metricExportInterval = 5 * time.Second

// ErrSettingUpTelemetry wraps failures to build the OpenTelemetry providers.
var ErrSettingUpTelemetry = errors.New("setting up telemetry failed")

// Telemetry holds the providers built from ObservabilityConfig. Either provider may be nil.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Shutdown flushes and stops the providers that were created.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}

	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// Resource identifies the service in exported telemetry.
func (c ObservabilityConfig) Resource(ctx context.Context, version string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(c.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, errors.Join(ErrSettingUpTelemetry, err)
	}

	return res, nil
}

// SetupTelemetry builds the tracer provider (OTLP over gRPC) when tracing is enabled and a
// meter provider when the otel metrics backend is selected. The tracer provider is installed
// globally together with the W3C trace context propagator.
// Without metricReaders, metrics are pushed over OTLP every metricExportInterval.
func (c ObservabilityConfig) SetupTelemetry(ctx context.Context, version string, metricReaders ...sdkmetric.Reader) (*Telemetry, error) {
	telemetry := &Telemetry{}

	if !c.TracingEnabled && c.MetricsBackend != "otel" {
		return telemetry, nil
	}

	res, err := c.Resource(ctx, version)
	if err != nil {
		return nil, err
	}

	if c.TracingEnabled {
		exporterOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTLPEndpoint)}
		if c.OTLPInsecure {
			exporterOptions = append(exporterOptions, otlptracegrpc.WithInsecure())
		}

		exporter, err := otlptracegrpc.New(ctx, exporterOptions...)
		if err != nil {
			return nil, errors.Join(ErrSettingUpTelemetry, err)
		}

		telemetry.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(telemetry.TracerProvider)
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}

	if c.MetricsBackend == "otel" {
		if len(metricReaders) == 0 {
			reader, err := c.otlpMetricReader(ctx)
			if err != nil {
				return nil, err
			}

			metricReaders = append(metricReaders, reader)
		}

		options := []sdkmetric.Option{sdkmetric.WithResource(res)}
		for _, reader := range metricReaders {
			options = append(options, sdkmetric.WithReader(reader))
		}

		telemetry.MeterProvider = sdkmetric.NewMeterProvider(options...)
	}

	return telemetry, nil
}

func (c ObservabilityConfig) otlpMetricReader(ctx context.Context) (sdkmetric.Reader, error) {
	exporterOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.OTLPEndpoint)}
	if c.OTLPInsecure {
		exporterOptions = append(exporterOptions, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, exporterOptions...)
	if err != nil {
		return nil, errors.Join(ErrSettingUpTelemetry, err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval)), nil
}
