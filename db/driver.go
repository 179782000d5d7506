// Package db — driver.go
// Pluggable driver adapters. Each adapter knows how to build its DSN and
// migration URL from structured options, which placeholder style its SQL
// uses, and how to translate its native errors into the package sentinels.
package db

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour.
type Driver interface {
	// Name returns the name the driver is registered under in database/sql.
	Name() string

	// DSN converts structured options into a driver DSN string.
	DSN(opts DriverOptions) (string, error)

	// MigrateURL converts structured options into a golang-migrate URL.
	MigrateURL(opts DriverOptions) (string, error)

	// BindStyle reports the placeholder syntax the driver expects.
	BindStyle() BindStyle

	// ErrorMapper returns a mapper tuned to this driver's error types.
	ErrorMapper() ErrorMapper
}

// DriverOptions carries the common connection parameters in a
// driver-agnostic form.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string // file path for sqlite3
	SSLMode  string // postgres only
	Timeout  time.Duration
	// Extra holds driver-specific key/value parameters.
	Extra map[string]string
}

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the registry. It panics when a driver with
// the same name already exists.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[d.Name()]; ok {
		panic(fmt.Sprintf("registry/db: driver %q already registered", d.Name()))
	}
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("registry/db: driver %q not registered", name)
	}
	return d, nil
}

// Drivers returns the names of all registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	return names
}

func init() {
	RegisterDriver(MySQLDriver{})
	RegisterDriver(PostgresDriver{})
	RegisterDriver(SQLiteDriver{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Placeholders
// ─────────────────────────────────────────────────────────────────────────────

// BindStyle is the placeholder syntax of a driver.
type BindStyle int

const (
	// BindQuestion uses '?' (MySQL, SQLite).
	BindQuestion BindStyle = iota
	// BindDollar uses '$1', '$2', ... (PostgreSQL).
	BindDollar
)

// Rebind rewrites the '?' placeholders of query into style. Question marks
// inside single-quoted literals are left alone.
func Rebind(style BindStyle, query string) string {
	if style == BindQuestion {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter.
type MySQLDriver struct{}

func (MySQLDriver) Name() string         { return "mysql" }
func (MySQLDriver) BindStyle() BindStyle { return BindQuestion }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", o.Host, port)
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = o.Database
	cfg.ParseTime = true
	cfg.Timeout = o.Timeout
	if len(o.Extra) > 0 {
		cfg.Params = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (d MySQLDriver) MigrateURL(o DriverOptions) (string, error) {
	dsn, err := d.DSN(o)
	if err != nil {
		return "", err
	}
	return "mysql://" + dsn, nil
}

func (MySQLDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(mapMySQLError) }

func mapMySQLError(err error) error {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case 1062: // ER_DUP_ENTRY
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case 1452, 1216, 1217, 1451: // ER_NO_REFERENCED_ROW, ER_ROW_IS_REFERENCED
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case 1213, 1205: // ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return &DBError{Sentinel: ErrDeadlock, Cause: err}
	case 3819, 1048: // ER_CHECK_CONSTRAINT_VIOLATED, ER_BAD_NULL_ERROR
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case 3024: // ER_QUERY_TIMEOUT
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	case 1044, 1045, 1049, 2002, 2003, 2006, 2013:
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter.
type PostgresDriver struct{}

func (PostgresDriver) Name() string         { return "postgres" }
func (PostgresDriver) BindStyle() BindStyle { return BindDollar }

func (PostgresDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	if o.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(o.Timeout.Seconds())))
	}
	for k, v := range o.Extra {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Password),
		Host:     fmt.Sprintf("%s:%d", o.Host, port),
		Path:     "/" + o.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (d PostgresDriver) MigrateURL(o DriverOptions) (string, error) { return d.DSN(o) }

func (PostgresDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(mapPQError) }

func mapPQError(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return err
	}
	if mapped := mapByPGCode(string(pe.Code), err); mapped != nil {
		return mapped
	}
	return err
}

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapByPGCode(code string, cause error) error {
	switch code {
	case "23505": // unique_violation
		return &DBError{Sentinel: ErrDuplicateKey, Cause: cause}
	case "23503": // foreign_key_violation
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: cause}
	case "23514", "23502": // check_violation, not_null_violation
		return &DBError{Sentinel: ErrCheckViolation, Cause: cause}
	case "40P01": // deadlock_detected
		return &DBError{Sentinel: ErrDeadlock, Cause: cause}
	case "57014": // query_canceled
		return &DBError{Sentinel: ErrTimeout, Cause: cause}
	case "08000", "08003", "08006", "08001", "08004", "08007", "08P01", "28P01", "3D000":
		return &DBError{Sentinel: ErrConnectionFailed, Cause: cause}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter. Database is a file path.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string         { return "sqlite3" }
func (SQLiteDriver) BindStyle() BindStyle { return BindQuestion }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	if len(o.Extra) == 0 {
		return o.Database, nil
	}
	q := url.Values{}
	for k, v := range o.Extra {
		q.Set(k, v)
	}
	return o.Database + "?" + q.Encode(), nil
}

func (SQLiteDriver) MigrateURL(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	return "sqlite3://" + o.Database, nil
}

func (SQLiteDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(mapSQLiteError) }

func mapSQLiteError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case sqlite3.ErrConstraintForeignKey:
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return &DBError{Sentinel: ErrDeadlock, Cause: err}
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience
// ─────────────────────────────────────────────────────────────────────────────

// BuildDSN looks up driverName and builds its DSN from opts.
func BuildDSN(driverName string, opts DriverOptions) (string, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return "", err
	}
	return drv.DSN(opts)
}

// BuildMigrateURL looks up driverName and builds its golang-migrate URL.
func BuildMigrateURL(driverName string, opts DriverOptions) (string, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return "", err
	}
	return drv.MigrateURL(opts)
}
