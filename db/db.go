// Package db is the SQL layer of the employee registry. It is NOT an ORM:
// every statement is explicit, and the package only adds context-aware
// helpers, hook dispatch, unified error mapping, transactions and scoped
// per-operation connections on top of database/sql.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds all options for opening a database handle.
type Config struct {
	// DSN is the driver-specific data-source name.
	DSN string

	// DriverName is "mysql", "postgres" or "sqlite3".
	DriverName string

	// Pool settings. A Connector forces MaxOpenConns to 1.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds the initial Ping. Zero means 5 seconds.
	ConnectTimeout time.Duration

	// Default query timeout applied when no deadline is set on the context.
	// Zero means no default timeout.
	DefaultTimeout time.Duration

	// Hooks executed around every statement (logging, metrics).
	// nil entries are silently skipped.
	Hooks []Hook
}

const defaultConnectTimeout = 5 * time.Second

// ─────────────────────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────────────────────

// DB is a thin wrapper around *sql.DB adding hook dispatch, error mapping,
// placeholder rebinding and transaction management.
type DB struct {
	sqldb  *sql.DB
	cfg    Config
	style  BindStyle
	hooks  hookChain
	errMap ErrorMapper
}

// Open opens the database described by cfg and verifies connectivity with Ping.
// A failed Ping is reported as ErrConnectionFailed. Callers must Close the DB.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("registry/db: DSN must not be empty")
	}
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("registry/db: DriverName must not be empty")
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("registry/db: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	errMap := DefaultErrorMapper()
	style := BindQuestion
	if drv, err := LookupDriver(cfg.DriverName); err == nil {
		errMap = ChainMapper(drv.ErrorMapper(), DefaultErrorMapper())
		style = drv.BindStyle()
	}

	d := &DB{
		sqldb:  sqldb,
		cfg:    cfg,
		style:  style,
		hooks:  newHookChain(cfg.Hooks),
		errMap: errMap,
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}

	return d, nil
}

// Driver returns the database/sql driver name the DB was opened with.
func (d *DB) Driver() string { return d.cfg.DriverName }

// Close closes all connections and frees resources.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx = d.applyDefaultTimeout(ctx)
	return d.mapErr(d.sqldb.PingContext(ctx))
}

// Rebind rewrites the '?' placeholders of query into the driver's style.
func (d *DB) Rebind(query string) string { return Rebind(d.style, query) }

// BindStyle reports the placeholder style of the underlying driver.
func (d *DB) BindStyle() BindStyle { return d.style }

// ─────────────────────────────────────────────────────────────────────────────
// Query execution helpers
// ─────────────────────────────────────────────────────────────────────────────

// Exec executes a statement that returns no rows (INSERT, DELETE, DDL).
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = d.applyDefaultTimeout(ctx)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	res, err := d.sqldb.ExecContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query that returns rows.
// The caller MUST close the returned *sql.Rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx = d.applyDefaultTimeout(ctx)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	rows, err := d.sqldb.QueryContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
// ErrNotFound is returned from Scan when no row matches.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	ctx = d.applyDefaultTimeout(ctx)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	raw := d.sqldb.QueryRowContext(ctx, query, args...)
	d.hooks.After(ctx, query, args, time.Since(start), nil) // err unknown until Scan
	return &Row{raw: raw, errMap: d.errMap}
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (d *DB) applyDefaultTimeout(ctx context.Context) context.Context {
	if d.cfg.DefaultTimeout == 0 {
		return ctx
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx
	}
	ctx, _ = context.WithTimeout(ctx, d.cfg.DefaultTimeout) //nolint:govet
	return ctx
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row
// ─────────────────────────────────────────────────────────────────────────────

// Row wraps *sql.Row and maps errors through the unified error mapper.
type Row struct {
	raw    *sql.Row
	errMap ErrorMapper
}

// Scan copies columns from the matched row into dest values.
func (r *Row) Scan(dest ...any) error {
	err := r.raw.Scan(dest...)
	if err == nil {
		return nil
	}
	return r.errMap.Map(err)
}
