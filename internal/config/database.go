package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jbweber/homelab/reel/internal/datastore"
	"github.com/jbweber/homelab/reel/internal/migrations"
)

const pingTimeout = 5 * time.Second

// InitializeDatabase opens the configured store, tunes it and brings the
// schema up to date.
func (c *Config) InitializeDatabase(ctx context.Context) (*datastore.Datastore, error) {
	ds, err := c.OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}

	if err := migrations.Run(ctx, ds); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return ds, nil
}

// OpenDatabase opens and tunes the configured store without migrating it.
func (c *Config) OpenDatabase(ctx context.Context) (*datastore.Datastore, error) {
	dialect, err := datastore.DialectFor(c.Database.Driver)
	if err != nil {
		return nil, err
	}

	dsn := c.Database.DSN
	if dialect == datastore.SQLite && dsn == "" {
		dbPath := c.expandPath(c.Database.Path)

		// Ensure database directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = sqliteDSN(dbPath)
	}

	ds, err := datastore.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, err
	}

	OptimizeDatabaseConnection(ds.DB)

	if dialect == datastore.SQLite {
		if err := ApplyPragmaOptimizations(ctx, ds.DB); err != nil {
			ds.Close()
			return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
		}
		return ds, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ds.Ping(pingCtx); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

// sqliteDSN turns a file path into a DSN that enables foreign keys and a busy
// timeout on every pooled connection.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// OptimizeDatabaseConnection applies performance optimizations to the database connection
func OptimizeDatabaseConnection(db *sql.DB) {
	db.SetMaxOpenConns(10)                 // Limit concurrent connections
	db.SetMaxIdleConns(5)                  // Keep some connections alive
	db.SetConnMaxLifetime(5 * time.Minute) // Recycle connections periodically
	db.SetConnMaxIdleTime(1 * time.Minute) // Close idle connections after 1 minute
}

// ApplyPragmaOptimizations applies SQLite-specific performance pragmas
func ApplyPragmaOptimizations(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous = NORMAL",  // Balance between safety and performance
		"PRAGMA cache_size = 10000",    // Increase cache size (10MB)
		"PRAGMA temp_store = MEMORY",   // Store temporary tables in memory
		"PRAGMA mmap_size = 268435456", // 256MB memory mapping
		"PRAGMA optimize",              // Enable query optimizer
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return nil
}
