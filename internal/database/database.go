// Package database is the local SQL store used instead of Supabase in
// development and tests. It serves the same reads as the REST backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"tourbook/internal/config"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type DB struct {
	db     *sql.DB
	driver string
	logger *zerolog.Logger
}

// Open connects to the configured driver and creates missing tables.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = sql.Open(DriverPostgres, cfg.Postgres.DSN())
		if err == nil && cfg.Postgres.MaxConnections > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxConnections)
		}
	case DriverSQLite, "":
		return NewSQLite(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return initDB(db, DriverPostgres, logger)
}

// NewSQLite opens (and creates) a SQLite file. ":memory:" is accepted.
func NewSQLite(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection to :memory: would see its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return initDB(db, DriverSQLite, logger)
}

func initDB(db *sql.DB, driver string, logger *zerolog.Logger) (*DB, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	logger.Info().Str("driver", driver).Msg("Local store initialized")
	return &DB{db: db, driver: driver, logger: logger}, nil
}

// Ids and dates are TEXT so both drivers store the values PostgREST would
// return verbatim. Coordinates and stops are JSON arrays.
func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL DEFAULT '',
            name TEXT NOT NULL DEFAULT '',
            avatar TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS posts (
            id TEXT PRIMARY KEY,
            user_id TEXT,
            title TEXT NOT NULL,
            image TEXT,
            price DOUBLE PRECISION,
            start_date TEXT,
            end_date TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id TEXT PRIMARY KEY,
            post_id TEXT,
            user_id TEXT NOT NULL,
            total_price DOUBLE PRECISION,
            people INTEGER NOT NULL DEFAULT 0,
            pay_state TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            payment_intent_id TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS schedules (
            post_id TEXT NOT NULL,
            day INTEGER NOT NULL,
            lat TEXT NOT NULL DEFAULT '[]',
            long TEXT NOT NULL DEFAULT '[]',
            places TEXT NOT NULL DEFAULT '[]',
            PRIMARY KEY (post_id, day)
        )`,
		`CREATE TABLE IF NOT EXISTS likes (
            post_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            PRIMARY KEY (post_id, user_id)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_payments_post_id ON payments(post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Driver() string { return db.driver }

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
