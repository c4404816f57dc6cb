// Package migrate applies the embedded, versioned schema migrations.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Runner applies NNN_name.sql migrations in version order.
type Runner struct {
	db  *sql.DB
	src fs.FS
}

// NewRunner creates a runner over the embedded migrations.
func NewRunner(db *sql.DB) *Runner {
	sub, _ := fs.Sub(embedded, "migrations")
	return &Runner{db: db, src: sub}
}

type migration struct {
	version int
	name    string
	sql     string
}

func (r *Runner) load() ([]migration, error) {
	entries, err := fs.ReadDir(r.src, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate: read migrations: %w", err)
	}

	var migs []migration
	seen := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migrate: version of %s: %w", name, err)
		}
		if other, dup := seen[ver]; dup {
			return nil, fmt.Errorf("migrate: %s and %s share version %d", other, name, ver)
		}
		seen[ver] = name

		data, err := fs.ReadFile(r.src, name)
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", name, err)
		}
		migs = append(migs, migration{version: ver, name: name, sql: string(data)})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })
	return migs, nil
}

func (r *Runner) bootstrap() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`)
	if err != nil {
		return fmt.Errorf("migrate: bootstrap: %w", err)
	}
	return nil
}

func (r *Runner) current() (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("migrate: applied version: %w", err)
	}
	return int(v.Int64), nil
}

// Run applies every pending migration, each in its own transaction.
func (r *Runner) Run() error {
	if err := r.bootstrap(); err != nil {
		return err
	}
	migs, err := r.load()
	if err != nil {
		return err
	}
	cur, err := r.current()
	if err != nil {
		return err
	}

	for _, m := range migs {
		if m.version <= cur {
			continue
		}
		if err := r.apply(m); err != nil {
			return err
		}
		log.Printf("migrate: applied %s", m.name)
	}
	return nil
}

func (r *Runner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", m.name, err)
	}
	if _, err := tx.Exec(m.sql); err != nil {
		tx.Rollback()
		return fmt.Errorf("migrate: exec %s: %w", m.name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		tx.Rollback()
		return fmt.Errorf("migrate: record %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", m.name, err)
	}
	return nil
}

// Status returns the applied version and the number of pending migrations.
func (r *Runner) Status() (current, pending int, err error) {
	if err = r.bootstrap(); err != nil {
		return 0, 0, err
	}
	if current, err = r.current(); err != nil {
		return 0, 0, err
	}
	migs, err := r.load()
	if err != nil {
		return 0, 0, err
	}
	for _, m := range migs {
		if m.version > current {
			pending++
		}
	}
	return current, pending, nil
}
