package models

import (
	"errors"
	"fmt"
	"strings"
)

// Employee represents a row in the "empleados" table.
// ID is assigned by the storage layer and never generated client-side.
type Employee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Sex   Sex    `json:"sex"`
	Email string `json:"email"`
}

// Sex is the enumerated value stored in the "sexo" column. The stored form
// is the Spanish word used by the existing schema.
type Sex string

const (
	SexMale   Sex = "Masculino"
	SexFemale Sex = "Femenino"
	SexOther  Sex = "Otro"
)

// DefaultSex is the value the form selector starts with.
const DefaultSex = SexMale

// Sexes lists the selectable values in display order.
func Sexes() []Sex { return []Sex{SexMale, SexFemale, SexOther} }

// Label returns the English display label.
func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	case SexOther:
		return "Other"
	}
	return string(s)
}

// Valid reports whether s is one of the enumerated values.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// ParseSex accepts either the stored value or the English label,
// case-insensitively.
func ParseSex(v string) (Sex, error) {
	v = strings.TrimSpace(v)
	for _, s := range Sexes() {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, s.Label()) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSex, v)
}

// ─────────────────────────────────────────────────────────────────────────────
// Input
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrValidation is matched by every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrEmptyName  = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyEmail = fmt.Errorf("%w: email is required", ErrValidation)
	ErrInvalidSex = fmt.Errorf("%w: sex must be Male, Female or Other", ErrValidation)
)

// CreateEmployeeParams holds the fields required to create an employee.
// The ID is assigned by storage on insert.
type CreateEmployeeParams struct {
	Name  string
	Sex   Sex
	Email string
}

// Normalize trims surrounding whitespace from the free-text fields.
func (p CreateEmployeeParams) Normalize() CreateEmployeeParams {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	return p
}

// Validate checks the required fields. Email format is not checked.
func (p CreateEmployeeParams) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrEmptyName)
	}
	if strings.TrimSpace(p.Email) == "" {
		errs = append(errs, ErrEmptyEmail)
	}
	if !p.Sex.Valid() {
		errs = append(errs, ErrInvalidSex)
	}
	return errors.Join(errs...)
}
