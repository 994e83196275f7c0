package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine/migrations"
	"github.com/AntonStoeckl/lending-workflow-go/lending/config"
)

const (
	EnvDSN     = "LENDING_TEST_POSTGRES_DSN"
	EnvAdapter = "ADAPTER_TYPE"

	truncateEvents = "TRUNCATE TABLE events RESTART IDENTITY"
)

// Wrapper abstracts over the driver a postgresengine.EventStore was built on.
type Wrapper interface {
	EventStore() postgresengine.EventStore
	Adapter() string
	truncate(ctx context.Context) error
	close()
}

type pgxWrapper struct {
	pool *pgxpool.Pool
	es   postgresengine.EventStore
}

func (w *pgxWrapper) EventStore() postgresengine.EventStore { return w.es }
func (w *pgxWrapper) Adapter() string                       { return config.PostgresAdapterPGX }
func (w *pgxWrapper) close()                                { w.pool.Close() }

func (w *pgxWrapper) truncate(ctx context.Context) error {
	_, err := w.pool.Exec(ctx, truncateEvents)
	return err
}

type sqlWrapper struct {
	db *sql.DB
	es postgresengine.EventStore
}

func (w *sqlWrapper) EventStore() postgresengine.EventStore { return w.es }
func (w *sqlWrapper) Adapter() string                       { return config.PostgresAdapterSQL }
func (w *sqlWrapper) close()                                { _ = w.db.Close() }

func (w *sqlWrapper) truncate(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, truncateEvents)
	return err
}

type sqlxWrapper struct {
	db *sqlx.DB
	es postgresengine.EventStore
}

func (w *sqlxWrapper) EventStore() postgresengine.EventStore { return w.es }
func (w *sqlxWrapper) Adapter() string                       { return config.PostgresAdapterSQLX }
func (w *sqlxWrapper) close()                                { _ = w.db.Close() }

func (w *sqlxWrapper) truncate(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, truncateEvents)
	return err
}

// GivenWrapper connects with the adapter from ADAPTER_TYPE, migrates the schema and registers
// cleanup (truncate, then close) with t. It skips t when no database is configured.
func GivenWrapper(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDSN)
	}

	ctx := context.Background()
	pg := config.Default().Storage.Postgres

	migrationDB, err := pg.OpenSQLDB(ctx, dsn)
	require.NoError(t, err, "error connecting to the test database")
	require.NoError(t, migrations.Up(migrationDB), "error migrating the test database")
	_ = migrationDB.Close()

	var wrapper Wrapper

	switch adapter := strings.ToLower(os.Getenv(EnvAdapter)); adapter {
	case config.PostgresAdapterPGX, "":
		pool, err := pg.OpenPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		es, err := postgresengine.NewEventStoreFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating event store")

		wrapper = &pgxWrapper{pool: pool, es: es}

	case config.PostgresAdapterSQL:
		db, err := pg.OpenSQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")

		es, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating event store")

		wrapper = &sqlWrapper{db: db, es: es}

	case config.PostgresAdapterSQLX:
		db, err := pg.OpenSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")

		es, err := postgresengine.NewEventStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating event store")

		wrapper = &sqlxWrapper{db: db, es: es}

	default:
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapter))
	}

	require.NoError(t, wrapper.truncate(ctx), "error cleaning up the events table")

	t.Cleanup(func() {
		_ = wrapper.truncate(context.Background())
		wrapper.close()
	})

	return wrapper
}
