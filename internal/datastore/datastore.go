package datastore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Datastore is an open connection pool together with its SQL dialect.
type Datastore struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open opens a connection pool for the given driver and DSN. The connection is
// not verified; call Ping for that.
func Open(driver, dsn string) (*Datastore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Driver, err)
	}

	return &Datastore{DB: db, Dialect: dialect}, nil
}

// New wraps an already open pool.
func New(db *sql.DB, dialect Dialect) *Datastore {
	return &Datastore{DB: db, Dialect: dialect}
}

// Ping verifies the store is reachable.
func (ds *Datastore) Ping(ctx context.Context) error {
	if err := ds.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}
