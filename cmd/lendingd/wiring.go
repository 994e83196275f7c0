package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore/memengine"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine/migrations"
	"github.com/AntonStoeckl/lending-workflow-go/lending/config"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/promcollector"
)

const instrumentationName = "github.com/AntonStoeckl/lending-workflow-go"

// ErrUnknownStorage is returned for a storage driver or adapter that is not wired.
var ErrUnknownStorage = errors.New("unknown storage configuration")

// eventStore is what lendingd needs from either engine.
type eventStore interface {
	shell.EventStore
	Ping(ctx context.Context) error
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, options))
	}

	return slog.New(slog.NewJSONHandler(w, options))
}

// observability is the wired result of ObservabilityConfig.
type observability struct {
	shell.Observability
	metricsHandler http.Handler
	telemetry      *config.Telemetry
}

func newObservability(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (observability, error) {
	telemetry, err := cfg.SetupTelemetry(ctx, version)
	if err != nil {
		return observability{}, err
	}

	obs := observability{
		Observability: shell.Observability{Logger: logger, ContextualLogger: logger},
		telemetry:     telemetry,
	}

	if cfg.LogBridge {
		obs.ContextualLogger = oteladapters.NewSlogBridgeLogger(instrumentationName)
	}

	switch cfg.MetricsBackend {
	case "prometheus":
		collector := promcollector.New(promcollector.WithProcessCollectors())
		obs.Metrics = collector
		obs.metricsHandler = collector.Handler()
	case "otel":
		obs.Metrics = oteladapters.NewMetricsCollector(telemetry.MeterProvider.Meter(instrumentationName))
	}

	if telemetry.TracerProvider != nil {
		obs.Tracing = oteladapters.NewTracingCollector(telemetry.TracerProvider.Tracer(instrumentationName))
	}

	return obs, nil
}

// openEventStore builds the configured engine. The returned close function releases its connections.
func openEventStore(ctx context.Context, cfg config.StorageConfig, obs shell.Observability) (eventStore, func(), error) {
	switch cfg.Driver {
	case config.StorageDriverMemory:
		return memengine.NewEventStore(
			memengine.WithLogger(obs.Logger),
			memengine.WithContextualLogger(obs.ContextualLogger),
			memengine.WithMetrics(obs.Metrics),
			memengine.WithTracing(obs.Tracing),
		), func() {}, nil

	case config.StorageDriverPostgres:
		pg := cfg.Postgres

		if pg.AutoMigrate {
			if err := migrate(ctx, pg); err != nil {
				return nil, nil, err
			}
		}

		options := postgresOptions(pg, obs)

		switch pg.Adapter {
		case config.PostgresAdapterPGX:
			return openPGX(ctx, pg, options)
		case config.PostgresAdapterSQL:
			return openSQL(ctx, pg, options)
		case config.PostgresAdapterSQLX:
			return openSQLX(ctx, pg, options)
		}
	}

	return nil, nil, ErrUnknownStorage
}

func postgresOptions(pg config.PostgresConfig, obs shell.Observability) []postgresengine.Option {
	options := []postgresengine.Option{
		postgresengine.WithTableName(pg.TableName),
		postgresengine.WithLogger(obs.Logger),
		postgresengine.WithContextualLogger(obs.ContextualLogger),
	}

	if obs.Metrics != nil {
		options = append(options, postgresengine.WithMetrics(obs.Metrics))
	}

	if obs.Tracing != nil {
		options = append(options, postgresengine.WithTracing(obs.Tracing))
	}

	return options
}

func migrate(ctx context.Context, pg config.PostgresConfig) error {
	db, err := pg.OpenSQLDB(ctx, pg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrations.Up(db)
}

func openPGX(ctx context.Context, pg config.PostgresConfig, options []postgresengine.Option) (eventStore, func(), error) {
	pool, err := pg.OpenPGXPool(ctx, pg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if pg.ReplicaDSN == "" {
		es, err := postgresengine.NewEventStoreFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return es, pool.Close, nil
	}

	replica, err := pg.OpenPGXPool(ctx, pg.ReplicaDSN)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeAll := func() {
		replica.Close()
		pool.Close()
	}

	es, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, options...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return es, closeAll, nil
}

func openSQL(ctx context.Context, pg config.PostgresConfig, options []postgresengine.Option) (eventStore, func(), error) {
	db, err := pg.OpenSQLDB(ctx, pg.DSN)
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() { _ = db.Close() }

	es, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return es, closeDB, nil
}

func openSQLX(ctx context.Context, pg config.PostgresConfig, options []postgresengine.Option) (eventStore, func(), error) {
	db, err := pg.OpenSQLX(ctx, pg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if pg.ReplicaDSN == "" {
		closeDB := func() { _ = db.Close() }

		es, err := postgresengine.NewEventStoreFromSQLX(db, options...)
		if err != nil {
			closeDB()
			return nil, nil, err
		}

		return es, closeDB, nil
	}

	replica, err := pg.OpenSQLX(ctx, pg.ReplicaDSN)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeAll := func() {
		_ = replica.Close()
		_ = db.Close()
	}

	es, err := postgresengine.NewEventStoreFromSQLXAndReplica(db, replica, options...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return es, closeAll, nil
}
