package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/newsstandhq/newsstand/pkg/config"
	"github.com/newsstandhq/newsstand/pkg/database"
	"github.com/newsstandhq/newsstand/pkg/migrations"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := &cli.App{
		Name:        "migrations",
		Usage:       "manage the newsstand database schema",
		Description: "Runs, rolls back and inspects schema migrations against the configured database (" + cfg.DatabaseDriver + ").",
		Commands:    commands(db),
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func commands(db *bun.DB) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "create the migration bookkeeping tables",
			Action: func(c *cli.Context) error {
				return migrations.Init(c.Context, db)
			},
		},
		{
			Name:  "migrate",
			Usage: "apply pending migrations",
			Action: func(c *cli.Context) error {
				group, err := migrations.BringUpToDate(c.Context, db)
				if err != nil {
					return err
				}
				report(group, "Schema is already up to date", "Applied")
				return nil
			},
		},
		{
			Name:  "rollback",
			Usage: "revert the last applied migration group",
			Action: func(c *cli.Context) error {
				group, err := migrations.Rollback(c.Context, db)
				if err != nil {
					return err
				}
				report(group, "Nothing to roll back", "Reverted")
				return nil
			},
		},
		{
			Name:      "create",
			Usage:     "scaffold a Go migration",
			ArgsUsage: "<words of the migration name>",
			Action: func(c *cli.Context) error {
				if c.NArg() == 0 {
					return cli.Exit("a migration name is required", 1)
				}
				name := strings.Join(c.Args().Slice(), "_")
				mf, err := migrations.CreateGoMigration(c.Context, db, name, migrationTemplate)
				if err != nil {
					return err
				}
				fmt.Printf("Created %s at %s\n", mf.Name, mf.Path)
				return nil
			},
		},
		{
			Name:  "unlock",
			Usage: "release a migration lock left behind by a crashed run",
			Action: func(c *cli.Context) error {
				if err := migrations.Unlock(c.Context, db); err != nil {
					return err
				}
				fmt.Println("Migration lock released")
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "list applied and pending migrations",
			Action: func(c *cli.Context) error {
				st, err := migrations.CurrentStatus(c.Context, db)
				if err != nil {
					return err
				}
				fmt.Printf("Applied (%d): %s\n", len(st.Applied), st.Applied)
				fmt.Printf("Pending (%d): %s\n", len(st.Unapplied), st.Unapplied)
				if st.LastGroup != nil && st.LastGroup.ID != 0 {
					fmt.Printf("Last group: %s\n", st.LastGroup)
				}
				return nil
			},
		},
	}
}

func report(group *migrate.MigrationGroup, noop, verb string) {
	if group.ID == 0 {
		fmt.Println(noop)
		return
	}
	fmt.Printf("%s %s\n", verb, group)
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return nil
		})
	}

	down := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, "")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
