// Package postgresengine implements the event store on PostgreSQL.
//
// Events live in one table (default "events", see the migrations sub package) with a
// BIGSERIAL sequence_number, an event_type, an occurred_at timestamp and JSONB payload and
// metadata columns. Filters are translated with goqu into event_type IN (...) conditions and
// JSONB containment checks on the payload.
//
// Append is a single INSERT ... SELECT guarded by the max sequence number of the filtered
// stream, executed inside a SERIALIZABLE transaction. Both a failed guard and a serialization
// failure are reported as eventstore.ErrConcurrencyConflict.
//
// Three connection types are supported: *pgxpool.Pool, *sql.DB (lib/pq) and *sqlx.DB.
package postgresengine
