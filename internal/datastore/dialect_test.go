package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
	}{
		{"sqlite", SQLite},
		{"SQLite3", SQLite},
		{"postgres", Postgres},
		{"postgresql", Postgres},
		{"mysql", MySQL},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := DialectFor(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialectFor_Unsupported(t *testing.T) {
	_, err := DialectFor("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestDialect_Rebind(t *testing.T) {
	query := "UPDATE movies SET name = ? WHERE id = ?"

	assert.Equal(t, query, SQLite.Rebind(query))
	assert.Equal(t, query, MySQL.Rebind(query))
	assert.Equal(t, "UPDATE movies SET name = $1 WHERE id = $2", Postgres.Rebind(query))
}

func TestDialect_Insert(t *testing.T) {
	assert.Equal(t, "INSERT INTO movies (name) VALUES (?) RETURNING id", SQLite.Insert("movies", "id", "name"))
	assert.Equal(t, "INSERT INTO movies (name) VALUES ($1) RETURNING id", Postgres.Insert("movies", "id", "name"))
	assert.Equal(t, "INSERT INTO movies (name) VALUES (?)", MySQL.Insert("movies", "id", "name"))
}

func TestDialect_Upsert(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO movies (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = excluded.name",
		SQLite.Upsert("movies", "id", "name"))
	assert.Equal(t,
		"INSERT INTO movies (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = excluded.name",
		Postgres.Upsert("movies", "id", "name"))
	assert.Equal(t,
		"INSERT INTO movies (id, name) VALUES (?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name)",
		MySQL.Upsert("movies", "id", "name"))
}

func TestDialect_AutoIncrementKey(t *testing.T) {
	assert.Equal(t, "INTEGER PRIMARY KEY AUTOINCREMENT", SQLite.AutoIncrementKey())
	assert.Equal(t, "BIGSERIAL PRIMARY KEY", Postgres.AutoIncrementKey())
	assert.Equal(t, "BIGINT AUTO_INCREMENT PRIMARY KEY", MySQL.AutoIncrementKey())
}

func TestDialect_SupportsReturning(t *testing.T) {
	assert.True(t, SQLite.SupportsReturning())
	assert.True(t, Postgres.SupportsReturning())
	assert.False(t, MySQL.SupportsReturning())
}
