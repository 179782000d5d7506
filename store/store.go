// Package store is the data access layer of the registry. Every operation
// acquires its own connection, runs exactly one fixed statement (committed
// when it mutates), and releases the connection before returning.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/models"
	"github.com/Skryldev/employee-registry/repo"
)

// Employees is the contract the presentation layer depends on.
type Employees interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	AddEmployee(ctx context.Context, params models.CreateEmployeeParams) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

// Store implements Employees on top of a db.Connector.
type Store struct {
	conn   *db.Connector
	logger *slog.Logger
}

// New returns a Store. A nil logger falls back to slog.Default().
func New(conn *db.Connector, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger.With("component", "store")}
}

// ListEmployees returns every employee ordered by ascending id. On failure it
// returns an empty slice together with the error.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := s.conn.Do(ctx, func(d *db.DB) error {
		var err error
		employees, err = repo.NewEmployeeRepo(d).List(ctx)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "list employees failed", "error", err)
		return []models.Employee{}, fmt.Errorf("store: list employees: %w", err)
	}
	s.logger.DebugContext(ctx, "listed employees", "count", len(employees))
	return employees, nil
}

// AddEmployee inserts and commits a new employee and returns it with its
// storage-assigned id. params must already be validated by the caller; they
// are checked again so that invalid input never reaches the database.
func (s *Store) AddEmployee(ctx context.Context, params models.CreateEmployeeParams) (*models.Employee, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("store: add employee: %w", err)
	}

	var created *models.Employee
	err := s.conn.DoTx(ctx, func(tx *db.Tx) error {
		var err error
		created, err = repo.NewEmployeeRepo(tx).Insert(ctx, params)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "add employee failed", "error", err)
		return nil, fmt.Errorf("store: add employee: %w", err)
	}
	s.logger.InfoContext(ctx, "employee added", "id", created.ID)
	return created, nil
}

// DeleteEmployee deletes and commits the employee with the given id.
// Deleting an id that does not exist is reported as success.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("store: delete employee: invalid id %d", id)
	}

	var affected int64
	err := s.conn.DoTx(ctx, func(tx *db.Tx) error {
		var err error
		affected, err = repo.NewEmployeeRepo(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "delete employee failed", "id", id, "error", err)
		return fmt.Errorf("store: delete employee %d: %w", id, err)
	}
	if affected == 0 {
		s.logger.WarnContext(ctx, "delete matched no employee", "id", id)
	} else {
		s.logger.InfoContext(ctx, "employee deleted", "id", id)
	}
	return nil
}

var _ Employees = (*Store)(nil)
