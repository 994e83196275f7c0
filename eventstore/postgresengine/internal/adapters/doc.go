// Package adapters lets the PostgreSQL engine run on pgxpool.Pool, database/sql (lib/pq) or sqlx.DB.
//
// Every adapter reads through Query, honouring the consistency level in the context when a replica
// is configured, and writes through ExecSerializable, which runs a single statement in its own
// SERIALIZABLE transaction.
package adapters
