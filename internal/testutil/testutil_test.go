package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDatastore(t *testing.T) {
	ds := SetupTestDatastore(t, "TestSetupTestDatastore")
	require.NotNil(t, ds)

	require.NoError(t, ds.DB.Ping())

	var result string
	require.NoError(t, ds.DB.QueryRow("SELECT 'test'").Scan(&result))
	assert.Equal(t, "test", result)
}

func TestSetupTestDatastoreWithMigrations(t *testing.T) {
	ds := SetupTestDatastoreWithMigrations(t, "TestSetupTestDatastoreWithMigrations")

	for _, table := range []string{"schema_migrations", "movies"} {
		var count int
		err := ds.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "expected table %s to exist", table)
	}

	_, err := ds.DB.Exec("INSERT INTO movies (name) VALUES (?)", "Alien")
	require.NoError(t, err)

	var name string
	require.NoError(t, ds.DB.QueryRow("SELECT name FROM movies WHERE id = 1").Scan(&name))
	assert.Equal(t, "Alien", name)
}

func TestSetupTestDatastore_MultipleInstances(t *testing.T) {
	ds1 := SetupTestDatastoreWithMigrations(t, "TestSetupTestDatastore_MultipleInstances_1")
	ds2 := SetupTestDatastoreWithMigrations(t, "TestSetupTestDatastore_MultipleInstances_2")

	_, err := ds1.DB.Exec("INSERT INTO movies (name) VALUES (?)", "Alien")
	require.NoError(t, err)

	var count int
	require.NoError(t, ds2.DB.QueryRow("SELECT COUNT(*) FROM movies").Scan(&count))
	assert.Equal(t, 0, count, "databases should be isolated")
}

func TestMemoryDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "TestName", "file:TestName?mode=memory&cache=shared"},
		{"subtest", "TestMovies/long name", "file:TestMovies_long_name?mode=memory&cache=shared"},
		{"uri characters", "a?b&c#d", "file:a_b_c_d?mode=memory&cache=shared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MemoryDSN(tt.in))
		})
	}
}

func TestSetupTestDatastore_DefaultsToTestName(t *testing.T) {
	t.Run("sub/test", func(t *testing.T) {
		ds := SetupTestDatastoreWithMigrations(t, "")

		_, err := ds.DB.Exec("INSERT INTO movies (name) VALUES (?)", "Alien")
		require.NoError(t, err)

		// The same sanitized name reaches the same shared-cache database.
		other := SetupTestDatastore(t, "TestSetupTestDatastore_DefaultsToTestName/sub/test")
		var count int
		require.NoError(t, other.DB.QueryRow("SELECT COUNT(*) FROM movies").Scan(&count))
		assert.Equal(t, 1, count)
	})
}
