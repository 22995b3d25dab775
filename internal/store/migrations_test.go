package store_test

import (
	"context"
	"testing"

	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		t.Run(dialect, func(t *testing.T) {
			migrations, err := store.LoadMigrations(dialect)

			require.NoError(t, err)
			require.NotEmpty(t, migrations)
			assert.Equal(t, 1, migrations[0].Version)
			assert.Equal(t, "create_mappings", migrations[0].Name)
			assert.Contains(t, migrations[0].SQL, "mappings")

			for i := 1; i < len(migrations); i++ {
				assert.Less(t, migrations[i-1].Version, migrations[i].Version)
			}
		})
	}

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := store.LoadMigrations("oracle")

		assert.Error(t, err)
	})
}

func TestMigrateSQLite_IsIdempotent(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()

	applied, err := store.MigrateSQLite(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = store.MigrateSQLite(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}
