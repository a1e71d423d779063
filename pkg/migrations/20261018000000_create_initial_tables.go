package migrations

import (
	"context"
	"time"

	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// usersTable is the users schema as first created. It carries the column
// defaults that models.User leaves out of its insert path.
type usersTable struct {
	bun.BaseModel `bun:"table:users"`

	ID           int       `bun:",pk,autoincrement"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	Email        string    `bun:",notnull,unique"`
	Username     string    `bun:",notnull,unique"`
	PasswordHash string    `bun:",notnull"`
	FullName     *string
	Role         string `bun:",notnull,default:'user'"`
	IsActive     bool   `bun:",notnull,default:true"`
}

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*usersTable)(nil)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.NewCreateTable().
			Model((*models.Publication)(nil)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		// Backs the public listing: state filter plus created_at/id ordering.
		_, err = db.NewCreateIndex().
			Model((*models.Publication)(nil)).
			Index("ix_publications_state_created_at").
			Column("state", "created_at", "id").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.NewCreateTable().
			Model((*models.Subscription)(nil)).
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.NewCreateIndex().
			Model((*models.Subscription)(nil)).
			Index("ix_subscriptions_user_id").
			Column("user_id").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.NewCreateIndex().
			Model((*models.Subscription)(nil)).
			Index("ix_subscriptions_status_end_date").
			Column("status", "end_date").
			Exec(ctx)
		return errors.WithStack(err)
	}

	down := func(ctx context.Context, db *bun.DB) error {
		for _, model := range []interface{}{
			(*models.Subscription)(nil),
			(*models.Publication)(nil),
			(*models.User)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
