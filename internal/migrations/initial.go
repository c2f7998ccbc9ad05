package migrations

import (
	"database/sql"
	"fmt"

	"github.com/jbweber/homelab/reel/internal/datastore"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_movies_table",
			Up: func(tx *sql.Tx, d datastore.Dialect) error {
				_, err := tx.Exec(fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS movies (
						id %s,
						name VARCHAR(255) NOT NULL
					)
				`, d.AutoIncrementKey()))
				return err
			},
			Down: func(tx *sql.Tx, d datastore.Dialect) error {
				_, err := tx.Exec(`DROP TABLE IF EXISTS movies`)
				return err
			},
		},
	}
}
