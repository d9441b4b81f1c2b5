// Package store persists ingested allele databases.
// Allele tables live in DuckDB (queryable); full ingestion results,
// including packed sequences, are cached as gob files.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the allele table.
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
			return nil, fmt.Errorf("create store directory: %w", err)
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

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(allelesDDL("CREATE TABLE IF NOT EXISTS", "alleles"))
	return err
}

// allelesDDL returns the allele table definition under the given name.
// Absent numeric fields are stored as 0; depth says how many are present.
func allelesDDL(create, table string) string {
	return create + " " + table + ` (
		eq_class BIGINT PRIMARY KEY,
		transcript_id VARCHAR,
		designation VARCHAR,
		gene VARCHAR,
		depth INTEGER,
		f1 INTEGER,
		f2 INTEGER,
		f3 INTEGER,
		f4 INTEGER,
		seq_len BIGINT
	)`
}
