package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_UpDownPairs(t *testing.T) {
	for _, dir := range []string{MongoMigrationsDir, PostgresMigrationsDir} {
		entries, err := fs.ReadDir(Migrations, dir)
		require.NoError(t, err, dir)
		require.NotEmpty(t, entries, dir)
		assert.Zero(t, len(entries)%2, "%s should hold up/down pairs", dir)
	}
}
