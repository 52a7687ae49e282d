package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps the SQL database connection together with the single-instance
// lock that guards the database file.
type DB struct {
	*sql.DB
	lock *flock.Flock
}

// Open opens the SQLite database at dbPath, acquires an exclusive lock on
// it and runs any pending migrations. A second process opening the same
// path fails fast instead of corrupting the file.
//
// Foreign key enforcement stays off on purpose: inserting a task under a
// parent id that does not exist is accepted, and the delete cascade is a
// single explicit statement in the service layer rather than an FK action.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("database %s is in use by another process", dbPath)
	}

	// WAL keeps readers from blocking the writer during list renders.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		lock.Unlock()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, lock: lock}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		lock.Unlock()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// migrate runs database migrations using embedded SQL files.
func (db *DB) migrate() error {
	// goose writes progress to stderr; keep server output clean.
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection and releases the file lock.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.lock != nil {
		err = multierr.Append(err, db.lock.Unlock())
	}
	return err
}

// Transaction executes fn within a transaction, rolling back when fn
// returns an error.
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
