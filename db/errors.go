package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sentinel errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("registry/db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("registry/db: duplicate key")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("registry/db: foreign key violation")

	// ErrDeadlock is returned when the database detects a deadlock or a lock
	// could not be acquired.
	ErrDeadlock = errors.New("registry/db: deadlock detected")

	// ErrTimeout is returned when a statement exceeds its deadline.
	ErrTimeout = errors.New("registry/db: query timeout")

	// ErrCheckViolation is returned when a CHECK or NOT NULL constraint is violated.
	ErrCheckViolation = errors.New("registry/db: check constraint violation")

	// ErrConnectionFailed is returned when the driver cannot reach the server.
	ErrConnectionFailed = errors.New("registry/db: connection failed")
)

func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }
func IsDeadlock(err error) bool            { return errors.Is(err, ErrDeadlock) }
func IsTimeout(err error) bool             { return errors.Is(err, ErrTimeout) }
func IsCheckViolation(err error) bool      { return errors.Is(err, ErrCheckViolation) }
func IsConnectionFailed(err error) bool    { return errors.Is(err, ErrConnectionFailed) }

// ─────────────────────────────────────────────────────────────────────────────
// DBError
// ─────────────────────────────────────────────────────────────────────────────

// DBError wraps a sentinel error with the original driver error so callers can
// use errors.Is(err, ErrDuplicateKey) or inspect the raw cause.
type DBError struct {
	// Sentinel is one of the package-level Err* variables.
	Sentinel error
	// Cause is the original driver error.
	Cause error
	// Message is an optional human-readable hint.
	Message string
}

func (e *DBError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Sentinel, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ─────────────────────────────────────────────────────────────────────────────
// ErrorMapper
// ─────────────────────────────────────────────────────────────────────────────

// ErrorMapper translates raw driver errors into the package's sentinel errors.
// A mapper returns err unchanged when it does not recognise it.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc is a convenience adapter from a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper handles driver-independent conditions: missing rows,
// context expiry, broken connections and network failures.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}

	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return err
}

// ChainMapper returns an ErrorMapper that tries each mapper in order and
// returns the first remapped error.
func ChainMapper(mappers ...ErrorMapper) ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		if err == nil {
			return nil
		}
		for _, m := range mappers {
			if mapped := m.Map(err); mapped != err {
				return mapped
			}
		}
		return err
	})
}
