package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/models"
	"github.com/Skryldev/employee-registry/repo"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

func newTestRepo(t *testing.T) (repo.EmployeeRepository, *db.DB) {
	t.Helper()

	database, err := db.Open(context.Background(), db.Config{
		DSN:        filepath.Join(t.TempDir(), "registry.db"),
		DriverName: "sqlite3",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	_, err = database.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS empleados (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			sexo   TEXT NOT NULL,
			correo TEXT NOT NULL
		)`)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	return repo.NewEmployeeRepo(database), database
}

func mustInsert(t *testing.T, r repo.EmployeeRepository, name string, sex models.Sex, email string) *models.Employee {
	t.Helper()
	e, err := r.Insert(context.Background(), models.CreateEmployeeParams{Name: name, Sex: sex, Email: email})
	if err != nil {
		t.Fatalf("insert %s: %v", name, err)
	}
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

func TestEmployeeRepo_Insert(t *testing.T) {
	r, _ := newTestRepo(t)

	e := mustInsert(t, r, "Ana Gomez", models.SexFemale, "ana@x.com")
	if e.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if e.Name != "Ana Gomez" || e.Sex != models.SexFemale || e.Email != "ana@x.com" {
		t.Fatalf("unexpected record: %+v", e)
	}
}

func TestEmployeeRepo_Insert_UniqueIDs(t *testing.T) {
	r, _ := newTestRepo(t)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		// Identical payloads still get distinct identifiers.
		e := mustInsert(t, r, "Same", models.SexOther, "same@x.com")
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// List
// ─────────────────────────────────────────────────────────────────────────────

func TestEmployeeRepo_List_Empty(t *testing.T) {
	r, _ := newTestRepo(t)

	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", list)
	}
}

func TestEmployeeRepo_List_OrderedByID(t *testing.T) {
	r, _ := newTestRepo(t)

	mustInsert(t, r, "Zoe", models.SexFemale, "zoe@x.com")
	mustInsert(t, r, "Adam", models.SexMale, "adam@x.com")
	mustInsert(t, r, "Max", models.SexOther, "max@x.com")

	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("not ordered by id: %+v", list)
		}
	}
	if list[0].Name != "Zoe" || list[1].Sex != models.SexMale || list[2].Email != "max@x.com" {
		t.Fatalf("unexpected rows: %+v", list)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

func TestEmployeeRepo_Delete(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	keep := mustInsert(t, r, "Keep", models.SexMale, "keep@x.com")
	gone := mustInsert(t, r, "Gone", models.SexFemale, "gone@x.com")

	n, err := r.Delete(ctx, gone.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 affected row, got %d", n)
	}

	list, _ := r.List(ctx)
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("unexpected rows after delete: %+v", list)
	}
}

func TestEmployeeRepo_Delete_Missing(t *testing.T) {
	r, _ := newTestRepo(t)

	n, err := r.Delete(context.Background(), 99999)
	if err != nil {
		t.Fatalf("delete of missing id must not fail: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 affected rows, got %d", n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction: repo inside tx
// ─────────────────────────────────────────────────────────────────────────────

func TestEmployeeRepo_InsideTransaction(t *testing.T) {
	_, database := newTestRepo(t)
	ctx := context.Background()

	var createdID int64
	err := database.ExecTx(ctx, func(tx *db.Tx) error {
		e, err := repo.NewEmployeeRepo(tx).Insert(ctx, models.CreateEmployeeParams{
			Name: "TxUser", Sex: models.SexOther, Email: "tx@x.com",
		})
		if err != nil {
			return err
		}
		createdID = e.ID
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	list, err := repo.NewEmployeeRepo(database).List(ctx)
	if err != nil {
		t.Fatalf("post-tx list: %v", err)
	}
	if len(list) != 1 || list[0].ID != createdID {
		t.Fatalf("committed row not visible: %+v", list)
	}
}
