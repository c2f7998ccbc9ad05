package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jbweber/homelab/reel/internal/datastore"
)

// Migration represents a database migration with up and down steps. Both run
// inside the transaction that records the version change.
type Migration struct {
	Version int64
	Name    string
	Up      func(tx *sql.Tx, d datastore.Dialect) error
	Down    func(tx *sql.Tx, d datastore.Dialect) error
}

// ErrNothingToRollback is returned by Rollback when no migration is applied.
var ErrNothingToRollback = errors.New("no applied migration to roll back")

// Migrator handles database migrations
type Migrator struct {
	ds         *datastore.Datastore
	migrations []Migration
}

// NewMigrator creates a new migrator instance
func NewMigrator(ds *datastore.Datastore) *Migrator {
	return &Migrator{
		ds:         ds,
		migrations: []Migration{},
	}
}

// AddMigration adds a migration to the migrator
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// RunMigrations runs all pending migrations in version order.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := m.apply(ctx, migration, true); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	return nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) (Migration, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return Migration{}, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return Migration{}, ErrNothingToRollback
	}

	for _, migration := range m.migrations {
		if migration.Version != currentVersion {
			continue
		}
		if migration.Down == nil {
			return Migration{}, fmt.Errorf("migration %d (%s) cannot be rolled back", migration.Version, migration.Name)
		}
		if err := m.apply(ctx, migration, false); err != nil {
			return Migration{}, fmt.Errorf("failed to roll back migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		return migration, nil
	}

	return Migration{}, fmt.Errorf("applied version %d is not registered", currentVersion)
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.ds.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// GetCurrentVersion returns the highest applied migration version, 0 when none.
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int64, error) {
	var version int64
	err := m.ds.DB.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// apply runs one migration step and records it in the same transaction.
func (m *Migrator) apply(ctx context.Context, migration Migration, up bool) (err error) {
	tx, err := m.ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	d := m.ds.Dialect
	if up {
		if err = migration.Up(tx, d); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, d.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), migration.Version, migration.Name)
	} else {
		if err = migration.Down(tx, d); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, d.Rebind("DELETE FROM schema_migrations WHERE version = ?"), migration.Version)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetMigrations returns all registered migrations
func (m *Migrator) GetMigrations() []Migration {
	return m.migrations
}

// Run applies every known migration to the datastore.
func Run(ctx context.Context, ds *datastore.Datastore) error {
	return newDefaultMigrator(ds).RunMigrations(ctx)
}

// RollbackLatest reverts the latest applied migration.
func RollbackLatest(ctx context.Context, ds *datastore.Datastore) (Migration, error) {
	return newDefaultMigrator(ds).Rollback(ctx)
}

// CurrentVersion reports the applied schema version.
func CurrentVersion(ctx context.Context, ds *datastore.Datastore) (int64, error) {
	m := newDefaultMigrator(ds)
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}
	return m.GetCurrentVersion(ctx)
}

func newDefaultMigrator(ds *datastore.Datastore) *Migrator {
	migrator := NewMigrator(ds)
	for _, migration := range GetInitialMigrations() {
		migrator.AddMigration(migration)
	}
	return migrator
}
