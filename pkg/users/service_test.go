package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/newsstandhq/newsstand/pkg/testutils/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, status int) {
	t.Helper()
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, status, codeErr.HTTPCode)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewService(db, 3)

	user, err := svc.Register(ctx, CreateUserOptions{
		Email:    "reader@example.com",
		Username: "Reader",
		Password: "correct horse",
		FullName: strPtr("  Rae Reader "),
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, "Rae Reader", *user.FullName)
	assert.True(t, auth.CheckPassword("correct horse", user.PasswordHash))

	t.Run("duplicate username is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, CreateUserOptions{Email: "other@example.com", Username: "reader", Password: "correct horse"})
		requireCode(t, err, http.StatusUnprocessableEntity)
		assert.Equal(t, "Username already exists", err.Error())
	})

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, CreateUserOptions{Email: "READER@example.com", Username: "someone", Password: "correct horse"})
		requireCode(t, err, http.StatusUnprocessableEntity)
		assert.Equal(t, "Email already exists", err.Error())
	})

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_BootstrapAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewService(db, 3)

	admin, err := svc.BootstrapAdmin(ctx, CreateUserOptions{Email: "root@example.com", Username: "root", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	_, err = svc.BootstrapAdmin(ctx, CreateUserOptions{Email: "root2@example.com", Username: "root2", Password: "correct horse"})
	requireCode(t, err, http.StatusForbidden)

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewService(db, 3)

	admin := testdb.CreateAdmin(t, db)
	first := testdb.CreateUser(t, db, testdb.UserOptions{})
	testdb.CreateUser(t, db, testdb.UserOptions{})

	users, total, err := svc.List(ctx, admin, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, first.ID, users[0].ID)

	_, _, err = svc.List(ctx, first, ListOptions{Limit: 10})
	requireCode(t, err, http.StatusForbidden)

	inactiveAdmin := testdb.CreateUser(t, db, testdb.UserOptions{Role: models.RoleAdmin, Inactive: true})
	_, _, err = svc.List(ctx, inactiveAdmin, ListOptions{Limit: 10})
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, "Inactive user", err.Error())
}

func TestService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewService(db, 3)

	admin := testdb.CreateAdmin(t, db)
	user := testdb.CreateUser(t, db, testdb.UserOptions{})

	t.Run("admin promotes and renames", func(t *testing.T) {
		updated, err := svc.Update(ctx, admin, user.ID, UpdateOptions{Role: strPtr(models.RoleAdmin), FullName: strPtr("Promoted")})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
		assert.Equal(t, "Promoted", *updated.FullName)

		reloaded, err := svc.Retrieve(ctx, admin, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, reloaded.Role)
	})

	t.Run("blank full name clears it", func(t *testing.T) {
		updated, err := svc.Update(ctx, admin, user.ID, UpdateOptions{FullName: strPtr("  ")})
		require.NoError(t, err)
		assert.Nil(t, updated.FullName)
	})

	t.Run("deactivation", func(t *testing.T) {
		updated, err := svc.Update(ctx, admin, user.ID, UpdateOptions{IsActive: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("admins cannot lock themselves out", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, admin.ID, UpdateOptions{IsActive: boolPtr(false)})
		requireCode(t, err, http.StatusUnprocessableEntity)
		_, err = svc.Update(ctx, admin, admin.ID, UpdateOptions{Role: strPtr(models.RoleUser)})
		requireCode(t, err, http.StatusUnprocessableEntity)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		other := testdb.CreateUser(t, db, testdb.UserOptions{})
		_, err := svc.Update(ctx, other, admin.ID, UpdateOptions{Role: strPtr(models.RoleUser)})
		requireCode(t, err, http.StatusForbidden)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, 9999, UpdateOptions{IsActive: boolPtr(true)})
		requireCode(t, err, http.StatusNotFound)
		assert.Equal(t, "User not found.", err.Error())
	})
}
