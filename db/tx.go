package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tx
// ─────────────────────────────────────────────────────────────────────────────

// Tx mirrors the DB API surface so that repositories can accept either
// *DB or *Tx via the Querier interface.
type Tx struct {
	sqltx  *sql.Tx
	style  BindStyle
	hooks  hookChain
	errMap ErrorMapper
}

// Exec executes a statement that does not return rows.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	res, err := t.sqltx.ExecContext(ctx, query, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query returning rows. The caller MUST close *sql.Rows.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	rows, err := t.sqltx.QueryContext(ctx, query, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	raw := t.sqltx.QueryRowContext(ctx, query, args...)
	t.hooks.After(ctx, query, args, time.Since(start), nil)
	return &Row{raw: raw, errMap: t.errMap}
}

// Rebind rewrites the '?' placeholders of query into the driver's style.
func (t *Tx) Rebind(query string) string { return Rebind(t.style, query) }

// BindStyle reports the placeholder style of the underlying driver.
func (t *Tx) BindStyle() BindStyle { return t.style }

func (t *Tx) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return t.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// ExecTx
// ─────────────────────────────────────────────────────────────────────────────

// ExecTx starts a transaction, executes fn, and commits on success or rolls
// back on error or panic.
//
//	err := d.ExecTx(ctx, func(tx *Tx) error {
//	    _, err := tx.Exec(ctx, tx.Rebind("DELETE FROM empleados WHERE id = ?"), id)
//	    return err
//	})
func (d *DB) ExecTx(ctx context.Context, fn func(*Tx) error) (err error) {
	ctx = d.applyDefaultTimeout(ctx)

	sqltx, err := d.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return d.mapErr(err)
	}

	tx := &Tx{
		sqltx:  sqltx,
		style:  d.style,
		hooks:  d.hooks,
		errMap: d.errMap,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqltx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("registry/db: rollback failed (%v) after original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return d.mapErr(err)
	}

	if err = sqltx.Commit(); err != nil {
		return d.mapErr(err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Querier
// ─────────────────────────────────────────────────────────────────────────────

// Querier is the minimal interface shared by both *DB and *Tx.
// Repository constructors accept a Querier so they work inside transactions.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
	Rebind(query string) string
	BindStyle() BindStyle
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
