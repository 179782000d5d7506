// Package migrations embeds the employee table schema for every supported
// driver and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed mysql/*.sql postgres/*.sql sqlite3/*.sql
var files embed.FS

// Migrator applies the embedded schema of one driver to one database.
type Migrator struct {
	m *migrate.Migrate
}

// New prepares a Migrator. driverName selects the embedded dialect
// ("mysql", "postgres", "sqlite3"); databaseURL is a golang-migrate URL.
func New(driverName, databaseURL string, logger *slog.Logger) (*Migrator, error) {
	src, err := iofs.New(files, driverName)
	if err != nil {
		return nil, fmt.Errorf("migrations: no schema for driver %q: %w", driverName, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrations: init: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	m.Log = &migrateLogger{logger: logger}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("migrations: down: steps must be positive, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Version returns the applied version. A database without migrations
// reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrations: version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, clearing a dirty state.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("migrations: force: %w", err)
	}
	return nil
}

// Drop removes every table in the database.
func (m *Migrator) Drop() error {
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("migrations: drop: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }
