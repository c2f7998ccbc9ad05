package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/jbweber/homelab/reel/internal/datastore"
	"github.com/jbweber/homelab/reel/internal/migrations"
)

// MemoryDSN names a shared-cache in-memory SQLite database. Characters that
// would break the URI, such as the slash in subtest names, become underscores.
func MemoryDSN(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
	return "file:" + clean + "?mode=memory&cache=shared"
}

// SetupTestDatastore opens an in-memory SQLite datastore named after the test.
// An empty testName falls back to t.Name(). The datastore is closed when the
// test finishes.
func SetupTestDatastore(t *testing.T, testName string) *datastore.Datastore {
	t.Helper()

	if testName == "" {
		testName = t.Name()
	}
	ds, err := datastore.Open("sqlite", MemoryDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := ds.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return ds
}

// SetupTestDatastoreWithMigrations is SetupTestDatastore with the schema applied.
func SetupTestDatastoreWithMigrations(t *testing.T, testName string) *datastore.Datastore {
	t.Helper()

	ds := SetupTestDatastore(t, testName)
	if err := migrations.Run(context.Background(), ds); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return ds
}
