package migrate

import (
	"database/sql"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/duckdb/duckdb-go/v2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunCreatesTables(t *testing.T) {
	db := openTestDB(t)
	if err := NewRunner(db).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{"schema_migrations", "preferences", "snapshots", "quotes"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	cur, pending, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 2 || pending != 0 {
		t.Errorf("Status = (%d, %d), want (2, 0)", cur, pending)
	}
}

func TestStatusBeforeRun(t *testing.T) {
	db := openTestDB(t)
	cur, pending, err := NewRunner(db).Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 0 || pending != 2 {
		t.Errorf("Status = (%d, %d), want (0, 2)", cur, pending)
	}
}

func TestRunRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	r := &Runner{db: db, src: fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok_table (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	}}

	err := r.Run()
	if err == nil || !strings.Contains(err.Error(), "002_broken.sql") {
		t.Fatalf("Run err = %v, want failure naming 002_broken.sql", err)
	}
	cur, pending, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 1 || pending != 1 {
		t.Errorf("Status = (%d, %d), want (1, 1)", cur, pending)
	}
}

func TestLoadRejectsDuplicateVersions(t *testing.T) {
	r := &Runner{src: fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}}
	if _, err := r.load(); err == nil {
		t.Fatal("load accepted duplicate versions")
	}
}
