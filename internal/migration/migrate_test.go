package migration

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceURL(t *testing.T) {
	url, err := SourceURL("migrations")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/migrations"))
}

// Every migration in the repository must have an up and a down script.
func TestMigrationsArePaired(t *testing.T) {
	source, err := SourceURL(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)

	driver, err := (&file.File{}).Open(source)
	require.NoError(t, err)
	defer driver.Close()

	version, err := driver.First()
	require.NoError(t, err)

	count := 0
	for {
		count++
		up, _, err := driver.ReadUp(version)
		require.NoError(t, err, "version %d has no up migration", version)
		upSQL, err := io.ReadAll(up)
		require.NoError(t, err)
		up.Close()
		assert.NotEmpty(t, strings.TrimSpace(string(upSQL)))

		down, _, err := driver.ReadDown(version)
		require.NoError(t, err, "version %d has no down migration", version)
		down.Close()

		version, err = driver.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, count, 1)
}

func TestInitialMigrationCreatesSchema(t *testing.T) {
	upSQL, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init_schema.up.sql"))
	require.NoError(t, err)

	for _, table := range []string{"users", "products", "orders", "order_products"} {
		assert.Contains(t, string(upSQL), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(upSQL), "PRIMARY KEY (order_id, product_id)")
}
