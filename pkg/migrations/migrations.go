package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds every schema change for the users, publications and
// subscriptions tables. Files in this package register themselves in init.
var Migrations = migrate.NewMigrations()

// Status summarizes where a database stands relative to Migrations.
type Status struct {
	Applied   migrate.MigrationSlice
	Unapplied migrate.MigrationSlice
	LastGroup *migrate.MigrationGroup
}

func newMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations)
}

// Init creates the bookkeeping tables bun uses to track applied migrations.
func Init(ctx context.Context, db *bun.DB) error {
	return errors.WithStack(newMigrator(db).Init(ctx))
}

// BringUpToDate applies every pending migration as one group. The returned
// group has ID 0 when there was nothing to apply.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	m := newMigrator(db)
	if err := m.Init(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}

// Rollback reverts the most recently applied group. The returned group has
// ID 0 when nothing was applied.
func Rollback(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	group, err := newMigrator(db).Rollback(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}

// Unlock clears a lock left behind by a run that died mid-migration.
func Unlock(ctx context.Context, db *bun.DB) error {
	return errors.WithStack(newMigrator(db).Unlock(ctx))
}

// CurrentStatus reports applied and pending migrations.
func CurrentStatus(ctx context.Context, db *bun.DB) (*Status, error) {
	ms, err := newMigrator(db).MigrationsWithStatus(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Status{
		Applied:   ms.Applied(),
		Unapplied: ms.Unapplied(),
		LastGroup: ms.LastGroup(),
	}, nil
}

// CreateGoMigration scaffolds a new migration file from tmpl in the package
// directory.
func CreateGoMigration(ctx context.Context, db *bun.DB, name, tmpl string) (*migrate.MigrationFile, error) {
	mf, err := newMigrator(db).CreateGoMigration(ctx, name, migrate.WithGoTemplate(tmpl))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return mf, nil
}
