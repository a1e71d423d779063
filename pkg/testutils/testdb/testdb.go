// Package testdb builds migrated in-memory databases and fixtures for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newsstandhq/newsstand/pkg/migrations"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plain text password of every user made by CreateUser.
const Password = "password123"

var seq atomic.Int64

// New returns a migrated in-memory SQLite database that is closed when the
// test ends.
func New(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// UserOptions tweaks a user made by CreateUser.
type UserOptions struct {
	Username string
	Role     string
	Inactive bool
}

// CreateUser inserts a user whose password is Password. Role defaults to
// user.
func CreateUser(t *testing.T, db *bun.DB, opts UserOptions) *models.User {
	t.Helper()

	n := seq.Add(1)
	if opts.Username == "" {
		opts.Username = fmt.Sprintf("user%d", n)
	}
	if opts.Role == "" {
		opts.Role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        fmt.Sprintf("%s-%d@example.com", opts.Username, n),
		Username:     opts.Username,
		PasswordHash: string(hash),
		Role:         opts.Role,
		IsActive:     !opts.Inactive,
		CreatedAt:    time.Now(),
	}
	user.UpdatedAt = user.CreatedAt
	_, err = db.NewInsert().Model(user).Returning("*").Exec(context.Background())
	require.NoError(t, err)

	return user
}

// CreateAdmin inserts an active admin.
func CreateAdmin(t *testing.T, db *bun.DB) *models.User {
	t.Helper()
	return CreateUser(t, db, UserOptions{Role: models.RoleAdmin})
}

// CreatePublication inserts a publication in the given state. Zero values
// are filled with a valid magazine.
func CreatePublication(t *testing.T, db *bun.DB, pub *models.Publication) *models.Publication {
	t.Helper()

	if pub == nil {
		pub = &models.Publication{}
	}
	if pub.Title == "" {
		pub.Title = fmt.Sprintf("Publication %d", seq.Add(1))
	}
	if pub.Type == "" {
		pub.Type = models.PublicationTypeMagazine
	}
	if pub.PriceMonthly == 0 {
		pub.PriceMonthly = 5
	}
	if pub.PriceYearly == 0 {
		pub.PriceYearly = 50
	}
	if pub.State == "" {
		pub.State = models.PublicationStateActive
	}
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = time.Now()
	}
	pub.UpdatedAt = pub.CreatedAt

	_, err := db.NewInsert().Model(pub).Returning("*").Exec(context.Background())
	require.NoError(t, err)

	return pub
}
