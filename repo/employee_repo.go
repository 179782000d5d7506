package repo

import (
	"context"
	"fmt"

	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// EmployeeRepository
// ─────────────────────────────────────────────────────────────────────────────

// EmployeeRepository is the persistence contract for employee records.
// The registry only ever lists, inserts and deletes; there is no update.
type EmployeeRepository interface {
	List(ctx context.Context) ([]models.Employee, error)
	Insert(ctx context.Context, params models.CreateEmployeeParams) (*models.Employee, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// employeeRepo is the production implementation backed by a db.Querier.
type employeeRepo struct {
	q db.Querier
}

// NewEmployeeRepo returns an EmployeeRepository backed by q.
// q can be a *db.DB or *db.Tx.
func NewEmployeeRepo(q db.Querier) EmployeeRepository {
	return &employeeRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

// Statements are written with '?' placeholders and rebound per driver.
const (
	sqlListEmployees = `
		SELECT id, nombre, sexo, correo
		FROM   empleados
		ORDER  BY id`

	sqlInsertEmployee = `
		INSERT INTO empleados (nombre, sexo, correo)
		VALUES (?, ?, ?)`

	sqlDeleteEmployee = `
		DELETE FROM empleados WHERE id = ?`
)

// ─────────────────────────────────────────────────────────────────────────────
// List
// ─────────────────────────────────────────────────────────────────────────────

// List returns every employee ordered by ascending id. An empty table yields
// an empty, non-nil slice.
func (r *employeeRepo) List(ctx context.Context) ([]models.Employee, error) {
	rows, err := r.q.Query(ctx, r.q.Rebind(sqlListEmployees))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]models.Employee, 0)
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Sex, &e.Email); err != nil {
			return nil, fmt.Errorf("repo/employee: scan: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo/employee: rows: %w", err)
	}
	return employees, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

// Insert creates an employee and returns it with the storage-assigned id.
// PostgreSQL has no LastInsertId, so the id is read back with RETURNING.
func (r *employeeRepo) Insert(ctx context.Context, params models.CreateEmployeeParams) (*models.Employee, error) {
	e := &models.Employee{Name: params.Name, Sex: params.Sex, Email: params.Email}

	if r.q.BindStyle() == db.BindDollar {
		query := r.q.Rebind(sqlInsertEmployee + ` RETURNING id`)
		if err := r.q.QueryRow(ctx, query, params.Name, string(params.Sex), params.Email).Scan(&e.ID); err != nil {
			return nil, fmt.Errorf("repo/employee: %w", err)
		}
		return e, nil
	}

	res, err := r.q.Exec(ctx, r.q.Rebind(sqlInsertEmployee), params.Name, string(params.Sex), params.Email)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repo/employee: last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

// Delete removes the employee with the given id and returns the number of
// rows affected. Zero affected rows is not an error.
func (r *employeeRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.q.Exec(ctx, r.q.Rebind(sqlDeleteEmployee), id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repo/employee: rows affected: %w", err)
	}
	return n, nil
}

var _ EmployeeRepository = (*employeeRepo)(nil)
