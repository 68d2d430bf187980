package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = "2006-01-02T15:04:05Z"

var (
	// ErrNotFound is returned when a record id does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInUse is returned when deleting a certificate still bound to a site
	ErrInUse = errors.New("record is in use")
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema.
// ":memory:" opens a private in-memory database.
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// FromConn wraps an already opened connection without touching the schema
func FromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) init() error {
	schemas := []struct {
		name string
		ddl  string
	}{
		{"certificates", createCertificatesTable},
		{"sites", createSitesTable},
		{"waf_logs", createWAFLogsTable},
	}
	for _, s := range schemas {
		if _, err := db.conn.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s schema: %w", s.name, err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// likePattern wraps s for a LIKE match, or returns "" when s is empty
func likePattern(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "%" + s + "%"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

// parseTimestamp parses SQLite timestamp formats
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05",
		timeFormat,
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
