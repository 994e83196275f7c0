// Package pgtest provides event stores backed by a real PostgreSQL database for integration tests.
//
// Tests are skipped unless LENDING_TEST_POSTGRES_DSN is set. ADAPTER_TYPE selects the driver adapter
// (pgx, sql or sqlx; pgx when empty). The schema is migrated once per wrapper and the events table is
// truncated on cleanup.
package pgtest
