package db

import (
	"context"
	"fmt"
)

// Connector hands out a dedicated, single-connection DB for the duration of
// one operation. The handle is opened on entry and closed on every exit path,
// so no connection is ever held between two operations.
type Connector struct {
	cfg Config
}

// NewConnector validates cfg and returns a Connector for it.
func NewConnector(cfg Config) (*Connector, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("registry/db: DSN must not be empty")
	}
	if _, err := LookupDriver(cfg.DriverName); err != nil {
		return nil, err
	}
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	return &Connector{cfg: cfg}, nil
}

// Driver returns the driver name of the connections handed out.
func (c *Connector) Driver() string { return c.cfg.DriverName }

// Do opens a connection, runs fn with it and closes it again. Open failures
// are reported as ErrConnectionFailed. A close error is returned only when fn
// itself succeeded.
func (c *Connector) Do(ctx context.Context, fn func(*DB) error) (err error) {
	d, err := Open(ctx, c.cfg)
	if err != nil {
		if IsConnectionFailed(err) {
			return err
		}
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("registry/db: close: %w", cerr)
		}
	}()
	return fn(d)
}

// DoTx is Do with fn running inside a transaction that is committed before
// the connection is released.
func (c *Connector) DoTx(ctx context.Context, fn func(*Tx) error) error {
	return c.Do(ctx, func(d *DB) error {
		return d.ExecTx(ctx, fn)
	})
}
