package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/getzep/textlab/internal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var log = internal.GetLogger()

//go:embed *.sql
var sqlMigrations embed.FS

// Migrate applies pending SQL migrations. A failed group is rolled back before the error is
// returned.
func Migrate(ctx context.Context, db *bun.DB) (err error) {
	migrations := migrate.NewMigrations()

	if err := migrations.Discover(sqlMigrations); err != nil {
		return fmt.Errorf("failed to discover migrations: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrator: %w", err)
	}
	defer func() {
		if unlockErr := migrator.Unlock(ctx); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock migrator: %w", unlockErr))
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		if _, rbErr := migrator.Rollback(ctx); rbErr != nil {
			return fmt.Errorf(
				"failed to apply migrations and rollback was unsuccessful: %w",
				errors.Join(err, rbErr),
			)
		}
		return fmt.Errorf("failed to apply migrations. rolled back successfully. %w", err)
	}

	if group.IsZero() {
		log.Info("there are no new migrations to run (database is up to date)")
		return nil
	}
	log.Infof("migrated to %s", group)

	return nil
}
