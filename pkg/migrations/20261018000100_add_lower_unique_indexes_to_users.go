package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Usernames and emails are unique regardless of case.
		_, err := db.Exec(`CREATE UNIQUE INDEX ux_users_username_lower ON users (LOWER(username))`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_email_lower ON users (LOWER(email))`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP INDEX IF EXISTS ux_users_email_lower`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP INDEX IF EXISTS ux_users_username_lower`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
