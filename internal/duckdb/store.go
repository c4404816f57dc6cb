// Package duckdb persists preferences and quote history in DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/novacrypto/nova/internal/duckdb/migrate"
	"github.com/novacrypto/nova/internal/model"
)

// Store manages the DuckDB connection. It implements model.KeyValueStore
// and model.HistoryRecorder.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration
}

var (
	_ model.KeyValueStore   = (*Store)(nil)
	_ model.HistoryRecorder = (*Store)(nil)
)

// NewStore opens or creates a DuckDB database and applies pending migrations.
// If dbPath is empty, an in-memory database is used.
// An optional queryTimeout can be passed; it defaults to 10s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if err := migrate.NewRunner(db).Run(); err != nil {
		db.Close()
		return nil, err
	}

	qt := 10 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	return &Store{
		db:           db,
		dbPath:       dbPath,
		QueryTimeout: qt,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}
