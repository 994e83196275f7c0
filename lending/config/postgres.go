package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for database/sql and sqlx
)

// ErrConnectingToDatabase wraps failures to configure, open or ping a connection pool.
var ErrConnectingToDatabase = errors.New("connecting to database failed")

// PGXPoolConfig translates the pool settings into a pgxpool.Config for dsn.
func (c PostgresConfig) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	poolConfig.MaxConns = c.MaxConns
	poolConfig.MinConns = c.MinConns
	poolConfig.MaxConnLifetime = c.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = c.HealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = c.ConnectTimeout

	return poolConfig, nil
}

// OpenPGXPool creates and pings a pool for dsn.
func (c PostgresConfig) OpenPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := c.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	return pool, nil
}

// OpenSQLDB opens a database/sql handle using the lib/pq driver.
func (c PostgresConfig) OpenSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	c.tune(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	return db, nil
}

// OpenSQLX opens a sqlx handle using the lib/pq driver.
func (c PostgresConfig) OpenSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingToDatabase, err)
	}

	c.tune(db.DB)

	return db, nil
}

func (c PostgresConfig) tune(db *sql.DB) {
	db.SetMaxOpenConns(int(c.MaxConns))
	db.SetMaxIdleConns(int(c.MinConns))
	db.SetConnMaxLifetime(c.MaxConnLifetime)
	db.SetConnMaxIdleTime(c.MaxConnIdleTime)
}
