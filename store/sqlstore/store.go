// Package sqlstore persists devices, credentials, issued tokens and device
// logs in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Dialect selects the SQL driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const (
	dirPermissions    = 0750
	sqliteBusyTimeout = 5000 // milliseconds
	connectionTimeout = 5 * time.Second
	connMaxIdleTime   = 30 * time.Minute
)

// Store owns the database connection. Devices, Tokens and Logs expose the
// repositories backed by it.
type Store struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// Open connects to the database and creates the schema if needed. dsn is a
// file path for SQLite and a connection string for PostgreSQL. timeout bounds
// every individual store operation.
func Open(dialect Dialect, dsn string, timeout time.Duration) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case SQLite:
		db, err = openSQLite(dsn)
	case Postgres:
		db, err = openPostgres(dsn)
	default:
		return nil, fmt.Errorf("[sqlstore Open] unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dialect: dialect, timeout: timeout}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("[sqlstore Open] verifying database connection: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("[sqlstore Open] creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		path, sqliteBusyTimeout)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Open] opening database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Open] opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	return db, nil
}

// Devices returns the device registry and credential repository.
func (s *Store) Devices() *DeviceRepo {
	return &DeviceRepo{store: s}
}

// Tokens returns the issued token repository.
func (s *Store) Tokens() *TokenRepo {
	return &TokenRepo{store: s}
}

// Logs returns the device log repository.
func (s *Store) Logs() *LogRepo {
	return &LogRepo{store: s}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Health checks the database connection health
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) blobType() string {
	if s.dialect == Postgres {
		return "BYTEA"
	}
	return "BLOB"
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			device_id  TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS device_credentials (
			device_id  TEXT PRIMARY KEY,
			shared_key ` + s.blobType() + ` NOT NULL,
			active     BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS device_tokens (
			device_id TEXT NOT NULL,
			kind      TEXT NOT NULL,
			type      TEXT NOT NULL,
			iat       BIGINT NOT NULL,
			exp       BIGINT NOT NULL,
			PRIMARY KEY (device_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS device_logs (
			log_id      TEXT PRIMARY KEY,
			device_id   TEXT NOT NULL,
			status_int  INTEGER NOT NULL,
			created_at  BIGINT NOT NULL,
			received_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS device_logs_device_idx ON device_logs (device_id, received_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("[sqlstore migrate] %w", err)
		}
	}
	return nil
}
