// Package store is the sink's durable layer: SQLite schema creation
// and a single reused positional insert statement, backed by
// modernc.org/sqlite (a cgo-free driver, grounded on
// jlee-heimdex-heimdex-agent's go.mod).
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// createTableSQL is idempotent (CREATE TABLE IF NOT EXISTS), so the
// sink can start from a blank directory or resume an existing one.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS frames (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	frame_id INTEGER,
	loop_iteration INTEGER,
	source_timestamp TEXT,
	processed_timestamp TEXT,
	filename TEXT,
	width INTEGER,
	height INTEGER,
	channels INTEGER,
	encoding TEXT,
	keypoint_count INTEGER,
	descriptor_rows INTEGER,
	descriptor_cols INTEGER,
	descriptor_elem_size INTEGER,
	descriptor_type INTEGER,
	descriptors_bytes INTEGER,
	image_path TEXT,
	metadata_json TEXT,
	descriptors BLOB,
	created_at TEXT
);`

const insertSQL = `
INSERT INTO frames (
	frame_id, loop_iteration, source_timestamp, processed_timestamp, filename,
	width, height, channels, encoding,
	keypoint_count, descriptor_rows, descriptor_cols, descriptor_elem_size,
	descriptor_type, descriptors_bytes, image_path, metadata_json, descriptors, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

// Store owns the opened database handle and the one prepared insert
// statement the sink reuses for every frame.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open opens (creating if absent) the SQLite database at path and
// ensures the frames table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer sink

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create frames table: %w", err)
	}

	stmt, err := db.Prepare(insertSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert statement: %w", err)
	}

	return &Store{db: db, insert: stmt}, nil
}

// Close releases the prepared statement and the database handle.
func (s *Store) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}
