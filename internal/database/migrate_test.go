package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationFilesAreOrdered(t *testing.T) {
	migrationsFS, err := fs.Sub(EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	files, err := migrationFiles(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "001_init.sql", files[0])
	require.IsNonDecreasing(t, files)
}
