package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// TokenExpiry is how long an issued access token stays valid.
const TokenExpiry = 7 * 24 * time.Hour

const msgInvalidCredentials = "Incorrect username or password"

var signingMethod = jwt.SigningMethodHS256

// JWTClaims carries the user identity. ID (jti) is unique per issued token.
type JWTClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	db        *bun.DB
	jwtSecret []byte
	now       func() time.Time
}

func NewService(db *bun.DB, jwtSecret string) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// Authenticate checks a username (case-insensitively) and password. Unknown
// users, wrong passwords and deactivated accounts all fail with the same
// 401 so callers can't tell them apart.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("LOWER(u.username) = LOWER(?)", username).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		burnPasswordCheck(password)
		return nil, errcodes.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !CheckPassword(password, user.PasswordHash) || !user.IsActive {
		return nil, errcodes.Unauthorized(msgInvalidCredentials)
	}
	return user, nil
}

func (s *Service) claimsFor(user *models.User) *JWTClaims {
	issued := s.now()
	return &JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenExpiry)),
		},
	}
}

// GenerateToken signs a fresh access token for user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	signed, err := jwt.NewWithClaims(signingMethod, s.claimsFor(user)).SignedString(s.jwtSecret)
	return signed, errors.WithStack(err)
}

func (s *Service) keyFunc(*jwt.Token) (interface{}, error) {
	return s.jwtSecret, nil
}

// ValidateToken parses a token signed with this service's secret. Tokens
// using any algorithm other than HS256 are rejected before the signature is
// checked.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// LookupUser loads the user a token belongs to. Deactivated users are still
// returned. Whether they may act is a policy decision.
func (s *Service) LookupUser(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}
