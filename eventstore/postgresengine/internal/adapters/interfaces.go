package adapters

import (
	"context"
	"database/sql"
)

// DBAdapter defines the database operations needed by the event store.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	ExecSerializable(ctx context.Context, query string) (DBResult, error)
	Ping(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

var serializableTxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

// stdRows wraps sql.Rows for the database/sql and sqlx adapters.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// execInTx runs query in tx and commits. The transaction is rolled back on any failure.
func execInTx(ctx context.Context, tx *sql.Tx, query string) (DBResult, error) {
	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		_ = tx.Rollback() // the exec error is the one that matters

		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}
