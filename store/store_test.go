package store_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/migrations"
	"github.com/Skryldev/employee-registry/models"
	"github.com/Skryldev/employee-registry/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")

	url, err := db.BuildMigrateURL("sqlite3", db.DriverOptions{Database: path})
	require.NoError(t, err)
	m, err := migrations.New("sqlite3", url, quiet)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	conn, err := db.NewConnector(db.Config{DSN: path, DriverName: "sqlite3"})
	require.NoError(t, err)
	return store.New(conn, quiet)
}

func unreachableStore(t *testing.T) *store.Store {
	t.Helper()
	conn, err := db.NewConnector(db.Config{
		DSN:        filepath.Join(t.TempDir(), "missing", "registry.db"),
		DriverName: "sqlite3",
	})
	require.NoError(t, err)
	return store.New(conn, quiet)
}

func ids(list []models.Employee) []int64 {
	out := make([]int64, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestStore_AddThenList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before, err := s.ListEmployees(ctx)
	require.NoError(t, err)

	triples := []models.CreateEmployeeParams{
		{Name: "Ana Gomez", Sex: models.SexFemale, Email: "ana@x.com"},
		{Name: "Luis Perez", Sex: models.SexMale, Email: "luis@x.com"},
		{Name: "Sam Ruiz", Sex: models.SexOther, Email: "sam@x.com"},
	}
	for _, p := range triples {
		created, err := s.AddEmployee(ctx, p)
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		after, err := s.ListEmployees(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		assert.NotContains(t, ids(before), created.ID, "id must be fresh")

		var matches []models.Employee
		for _, e := range after {
			if e.ID == created.ID {
				matches = append(matches, e)
			}
		}
		require.Len(t, matches, 1)
		assert.Equal(t, p.Name, matches[0].Name)
		assert.Equal(t, p.Sex, matches[0].Sex)
		assert.Equal(t, p.Email, matches[0].Email)
		before = after
	}
}

func TestStore_ListOrderedByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []string{"c", "a", "b", "d"} {
		_, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: n, Sex: models.SexOther, Email: n + "@x.com"})
		require.NoError(t, err)
	}
	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.IsIncreasing(t, ids(list))
}

func TestStore_DeleteRemovesID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: "A", Sex: models.SexMale, Email: "a@x.com"})
	require.NoError(t, err)
	b, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: "B", Sex: models.SexFemale, Email: "b@x.com"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEmployee(ctx, a.ID))

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(list))
}

func TestStore_DeleteMissingIsSuccess(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DeleteEmployee(context.Background(), 424242))
}

func TestStore_DeleteInvalidID(t *testing.T) {
	s := newTestStore(t)
	require.Error(t, s.DeleteEmployee(context.Background(), 0))
}

func TestStore_AddTrimsAndValidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: "  Ana ", Sex: models.SexFemale, Email: " ana@x.com "})
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, "ana@x.com", created.Email)

	_, err = s.AddEmployee(ctx, models.CreateEmployeeParams{Name: " ", Sex: models.SexFemale, Email: "x@x.com"})
	require.ErrorIs(t, err, models.ErrEmptyName)
}

func TestStore_ConnectionFailure(t *testing.T) {
	s := unreachableStore(t)
	ctx := context.Background()

	list, err := s.ListEmployees(ctx)
	require.Error(t, err)
	assert.True(t, db.IsConnectionFailed(err), "got %v", err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: "A", Sex: models.SexMale, Email: "a@x.com"})
	assert.Nil(t, created)
	assert.True(t, db.IsConnectionFailed(err), "got %v", err)

	err = s.DeleteEmployee(ctx, 1)
	assert.True(t, db.IsConnectionFailed(err), "got %v", err)
}

func TestStore_ValidationBeforeConnection(t *testing.T) {
	s := unreachableStore(t)

	_, err := s.AddEmployee(context.Background(), models.CreateEmployeeParams{Name: "A", Sex: models.SexMale})
	require.ErrorIs(t, err, models.ErrEmptyEmail)
	assert.False(t, db.IsConnectionFailed(err))
}

func TestStore_AddThenDeleteScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ana, err := s.AddEmployee(ctx, models.CreateEmployeeParams{Name: "Ana Gomez", Sex: models.SexFemale, Email: "ana@x.com"})
	require.NoError(t, err)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.Employee{{ID: ana.ID, Name: "Ana Gomez", Sex: models.SexFemale, Email: "ana@x.com"}}, list)

	require.NoError(t, s.DeleteEmployee(ctx, ana.ID))

	list, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(list), ana.ID)
}
