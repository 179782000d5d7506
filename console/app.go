// Package console is the presentation and control layer of the registry: a
// form (name, sex, email), the rendered employee table with an optional
// selection, and the three user actions that drive the data access layer.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/models"
	"github.com/Skryldev/employee-registry/store"
)

var (
	// ErrNoSelection is returned by SubmitDelete when no row is selected.
	ErrNoSelection = errors.New("console: no employee selected")
	// ErrUnknownRow is returned by Select for an id that is not rendered.
	ErrUnknownRow = errors.New("console: employee not in the current list")
)

// State is the interaction state of the App.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Level is the severity of a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// View renders application state and talks to the user. Notify and Confirm
// are modal: they return only once the user has seen or answered them.
type View interface {
	Render(rows []models.Employee, selected int64)
	ShowForm(f Form)
	ShowHelp(text string)
	Notify(level Level, title, message string)
	Confirm(title, question string) bool
}

// Form holds the values of the input fields.
type Form struct {
	Name  string
	Sex   models.Sex
	Email string
}

// DefaultForm returns an empty form with the default sex selected.
func DefaultForm() Form { return Form{Sex: models.DefaultSex} }

// Params converts the form into normalised insert parameters.
func (f Form) Params() models.CreateEmployeeParams {
	return models.CreateEmployeeParams{Name: f.Name, Sex: f.Sex, Email: f.Email}.Normalize()
}

// App owns the form, the rendered rows and the current selection. The rows
// are a disposable copy replaced on every refresh.
type App struct {
	store  store.Employees
	view   View
	logger *slog.Logger

	form     Form
	rows     []models.Employee
	selected int64
	state    State
}

// NewApp wires an App to its data access layer and view.
func NewApp(s store.Employees, v View, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		store:  s,
		view:   v,
		logger: logger.With("component", "console"),
		form:   DefaultForm(),
		rows:   []models.Employee{},
	}
}

func (a *App) Form() Form              { return a.form }
func (a *App) Rows() []models.Employee { return a.rows }
func (a *App) Selected() int64         { return a.selected }
func (a *App) State() State            { return a.state }

// SetName sets the name field.
func (a *App) SetName(v string) { a.form.Name = v }

// SetEmail sets the email field.
func (a *App) SetEmail(v string) { a.form.Email = v }

// SetSex sets the sex selector. Only the enumerated values are accepted.
func (a *App) SetSex(v string) error {
	s, err := models.ParseSex(v)
	if err != nil {
		a.view.Notify(LevelWarning, "Invalid value", "Sex must be one of Male, Female or Other.")
		return err
	}
	a.form.Sex = s
	return nil
}

// Select marks the rendered row with the given id. Zero clears the selection.
func (a *App) Select(id int64) error {
	if id == 0 {
		a.selected = 0
		return nil
	}
	if _, ok := a.row(id); !ok {
		a.view.Notify(LevelWarning, "No such employee", fmt.Sprintf("ID %d is not in the list.", id))
		return ErrUnknownRow
	}
	a.selected = id
	a.view.Render(a.rows, a.selected)
	return nil
}

// Refresh clears the table, fetches the full list again and renders it.
// On failure the user is notified and an empty table is rendered.
func (a *App) Refresh(ctx context.Context) error {
	a.rows = []models.Employee{}
	a.selected = 0

	rows, err := a.store.ListEmployees(ctx)
	if err != nil {
		a.notifyFailure(err, "Query error", "Could not load the employee list")
	} else {
		a.rows = rows
	}
	a.view.Render(a.rows, a.selected)
	return err
}

// SubmitAdd validates the form and registers a new employee. Empty name or
// email is rejected without touching the data access layer. On success the
// form is reset and the list refreshed; on failure the form keeps its values.
func (a *App) SubmitAdd(ctx context.Context) error {
	params := a.form.Params()
	if err := params.Validate(); err != nil {
		a.view.Notify(LevelWarning, "Empty fields", "Name and email are required.")
		return err
	}

	a.state = Submitting
	created, err := a.store.AddEmployee(ctx, params)
	a.state = Idle
	if err != nil {
		a.notifyFailure(err, "Registration failed", "Could not add the employee")
		return err
	}

	a.logger.DebugContext(ctx, "employee registered", "id", created.ID)
	a.view.Notify(LevelInfo, "Success", "Employee registered.")
	a.form = DefaultForm()
	return a.Refresh(ctx)
}

// SubmitDelete deletes the selected employee after the user confirms.
// Without a selection nothing is called. Declining leaves everything as is.
func (a *App) SubmitDelete(ctx context.Context) error {
	if a.selected == 0 {
		a.view.Notify(LevelWarning, "No selection", "Select an employee from the list to delete.")
		return ErrNoSelection
	}
	e, ok := a.row(a.selected)
	if !ok {
		a.selected = 0
		a.view.Notify(LevelWarning, "No selection", "Select an employee from the list to delete.")
		return ErrNoSelection
	}

	if !a.view.Confirm("Confirm deletion", fmt.Sprintf("Delete %s (ID: %d)?", e.Name, e.ID)) {
		a.logger.DebugContext(ctx, "deletion declined", "id", e.ID)
		return nil
	}

	a.state = Submitting
	err := a.store.DeleteEmployee(ctx, e.ID)
	a.state = Idle
	if err != nil {
		a.notifyFailure(err, "Delete failed", "Could not delete the employee")
		return err
	}

	a.view.Notify(LevelInfo, "Success", "Employee deleted.")
	return a.Refresh(ctx)
}

func (a *App) row(id int64) (models.Employee, bool) {
	for _, e := range a.rows {
		if e.ID == id {
			return e, true
		}
	}
	return models.Employee{}, false
}

func (a *App) notifyFailure(err error, title, message string) {
	if db.IsConnectionFailed(err) {
		title = "Connection error"
		message = "Could not connect to the database"
	}
	a.view.Notify(LevelError, title, fmt.Sprintf("%s: %v", message, err))
}
