//go:build testutils

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func CleanDB(t *testing.T, db *bun.DB) {
	for _, schema := range tableList {
		_, err := db.NewDropTable().
			Model(schema).
			Cascade().
			IfExists().
			Exec(context.Background())
		require.NoError(t, err)
	}
	_, err := db.ExecContext(context.Background(), "DROP TABLE IF EXISTS bun_migrations, bun_migration_locks")
	require.NoError(t, err)
}
