// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the connection pool with recovery for stale cached statements.
//
// # Why
//
// When the schema changes under a live pool (online migration, manual DDL),
// Postgres rejects previously prepared statements with "cached plan must not
// change result type". The failure is not data-dependent: every pooled
// connection holding the old plan keeps failing until it re-prepares.
// Resetting the pool and retrying the query exactly once converts a
// would-be outage into a single slow request.
//
// The retry is keyed on that one error signature only. It is not a general
// retry loop: any other failure surfaces immediately.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDB wraps an existing pool.
func NewDB(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	return &DB{pool: pool, logger: logger}
}

// IsStaleStatement reports whether err is the Postgres cached-plan
// invalidation error (SQLSTATE 0A000 with the cached plan message).
func IsStaleStatement(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.FeatureNotSupported &&
		strings.Contains(pgErr.Message, "cached plan must not change result type")
}

// reset flushes every pooled connection so fresh plans are prepared.
func (db *DB) reset(ctx context.Context) {
	db.logger.WarnContext(ctx, "stale_prepared_statement_detected",
		slog.String("action", "resetting connection pool and retrying once"),
	)
	db.pool.Reset()
}

// Exec runs a statement, retrying once after a pool reset if the prepared
// plan went stale.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tag, err := db.pool.Exec(ctx, sql, args...)
	if err != nil && IsStaleStatement(err) {
		db.reset(ctx)
		return db.pool.Exec(ctx, sql, args...)
	}
	return tag, err
}

// Query runs a query, retrying once after a pool reset if the prepared
// plan went stale.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil && IsStaleStatement(err) {
		db.reset(ctx)
		return db.pool.Query(ctx, sql, args...)
	}
	return rows, err
}

// QueryRow runs a single-row query. The stale-plan check happens inside
// Scan, because pgx surfaces row errors there.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &retryRow{db: db, ctx: ctx, sql: sql, args: args}
}

// Begin starts a transaction on the underlying pool.
//
// Statements inside a transaction are not retried: a stale-plan failure
// aborts the transaction and the caller's rollback path handles it.
func (db *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.pool.Begin(ctx)
}

// Ping verifies database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return Ping(ctx, db.pool)
}

// retryRow defers execution to Scan so a stale plan can be retried once.
type retryRow struct {
	db   *DB
	ctx  context.Context
	sql  string
	args []any
}

// Scan executes the query and scans the first row, retrying once on a stale
// prepared statement.
func (row *retryRow) Scan(dest ...any) error {
	err := row.db.pool.QueryRow(row.ctx, row.sql, row.args...).Scan(dest...)
	if err != nil && IsStaleStatement(err) {
		row.db.reset(row.ctx)
		return row.db.pool.QueryRow(row.ctx, row.sql, row.args...).Scan(dest...)
	}
	return err
}
