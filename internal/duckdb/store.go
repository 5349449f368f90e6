// Package duckdb records per-site filter decisions in a DuckDB database,
// so dropped and kept sites can be queried after a run.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for site decision reports.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS run_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id BIGINT PRIMARY KEY DEFAULT nextval('run_id_seq'),
			input_path VARCHAR,
			input_size BIGINT,
			input_mod_time TIMESTAMP,
			meta_columns BIGINT,
			min_homozygotes BIGINT,
			min_alt_individuals BIGINT,
			tie_break VARCHAR,
			multiallelic VARCHAR,
			started_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS site_decisions (
			run_id BIGINT,
			line BIGINT,
			chrom VARCHAR,
			pos VARCHAR,
			id VARCHAR,
			zero_count BIGINT,
			one_count BIGINT,
			other_count BIGINT,
			missing_count BIGINT,
			minor_allele VARCHAR,
			hom_minor BIGINT,
			alt_individuals BIGINT,
			tie BOOLEAN,
			multiallelic BOOLEAN,
			keep BOOLEAN,
			reason VARCHAR,
			PRIMARY KEY (run_id, line)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
