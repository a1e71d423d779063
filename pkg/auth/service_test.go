package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/testutils/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testdb.New(t)
	svc := NewService(db, "test-secret")

	user := testdb.CreateUser(t, db, testdb.UserOptions{Username: "Reader"})
	inactive := testdb.CreateUser(t, db, testdb.UserOptions{Username: "gone", Inactive: true})

	t.Run("accepts valid credentials case-insensitively", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "reader", testdb.Password)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "Reader", "wrong-password")
		assert.ErrorIs(t, err, errcodes.Unauthorized(msgInvalidCredentials))
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", testdb.Password)
		assert.ErrorIs(t, err, errcodes.Unauthorized(msgInvalidCredentials))
	})

	t.Run("rejects inactive users", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, inactive.Username, testdb.Password)
		assert.ErrorIs(t, err, errcodes.Unauthorized(msgInvalidCredentials))
	})
}

func TestService_Tokens(t *testing.T) {
	t.Parallel()
	db := testdb.New(t)
	svc := NewService(db, "test-secret")
	user := testdb.CreateAdmin(t, db)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Role, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, time.Minute)

	t.Run("each token has its own id", func(t *testing.T) {
		other, err := svc.GenerateToken(user)
		require.NoError(t, err)
		otherClaims, err := svc.ValidateToken(other)
		require.NoError(t, err)
		assert.NotEqual(t, claims.ID, otherClaims.ID)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		_, err := NewService(db, "other-secret").ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
			UserID: user.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		signed, err := expired.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("token lapses after the expiry window", func(t *testing.T) {
		later := NewService(db, "test-secret")
		later.now = func() time.Time { return time.Now().Add(TokenExpiry + time.Minute) }
		_, err := later.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, JWTClaims{UserID: user.ID})
		signed, err := hs512.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("rejects tokens without a user id", func(t *testing.T) {
		anon := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{Username: "ghost"})
		signed, err := anon.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestService_LookupUserIncludesInactiveUsers(t *testing.T) {
	t.Parallel()
	db := testdb.New(t)
	svc := NewService(db, "test-secret")
	user := testdb.CreateUser(t, db, testdb.UserOptions{Inactive: true})

	got, err := svc.LookupUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("battery staple", hash))
}
