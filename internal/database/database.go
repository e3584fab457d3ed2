package database

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store keeps bot counters between restarts.
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at path and creates the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// ":memory:" databases live per connection
	db.SetMaxOpenConns(1)

	createMetricsTable := `
		CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT NOT NULL DEFAULT '',
		label_value TEXT NOT NULL DEFAULT '',
		metric_value REAL NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`
	if _, err = db.Exec(createMetricsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metrics table: %w", err)
	}

	log.Debugf("database %s initialized", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
