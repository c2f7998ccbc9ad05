package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/reel/internal/config"
	"github.com/jbweber/homelab/reel/internal/events"
)

// useTempDatabase points the CLI at a fresh SQLite file.
func useTempDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reel.db")
	t.Setenv("REEL_DB_PATH", path)
	return path
}

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMigrate_UpVersionDown(t *testing.T) {
	useTempDatabase(t)

	out, err := execute(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "schema version 0\n", out)

	out, err = execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	out, err = execute(t, "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "rolled back 1 create_movies_table\n", out)

	out, err = execute(t, "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "nothing to roll back\n", out)
}

func TestImport(t *testing.T) {
	useTempDatabase(t)
	file := writeJSON(t, `[{"name":"Alien"},{"name":"Heat"}]`)

	out, err := execute(t, "import", file)
	require.NoError(t, err)
	assert.Equal(t, "1\tAlien\n2\tHeat\nimported 2 movies\n", out)

	out, err = execute(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)
}

func TestImport_BlankNameSavesNothing(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "import", writeJSON(t, `[{"name":"Alien"},{"name":""}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid name for movie at index 1")

	out, err := execute(t, "import", writeJSON(t, `[{"name":"Heat"}]`))
	require.NoError(t, err)
	assert.Equal(t, "1\tHeat\nimported 1 movies\n", out)
}

func TestImport_BadFile(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = execute(t, "import", writeJSON(t, `{"name":"not an array"}`))
	require.Error(t, err)
}

func TestNewServer(t *testing.T) {
	cfg := config.NewConfig().HTTP
	srv := newServer(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
	assert.NotNil(t, srv.ErrorLog)
}

func TestNewPublisher_NoopWithoutURL(t *testing.T) {
	p, err := newPublisher(config.NewConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.IsType(t, events.Noop{}, p)
}
