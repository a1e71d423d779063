package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
)

const contextKeyUser = "user"

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate resolves the request credential to a user and stores it on
// the context. Requests without a usable credential get a 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthorized("Not authenticated")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Could not validate credentials")
		}

		user, err := m.authService.LookupUser(c.Request().Context(), claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("Could not validate credentials")
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

// AuthenticateOptional stores the user on the context when the request
// carries a valid credential and otherwise continues anonymously.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token != "" {
			claims, err := m.authService.ValidateToken(token)
			if err == nil {
				user, err := m.authService.LookupUser(c.Request().Context(), claims.UserID)
				if err == nil {
					c.Set(contextKeyUser, user)
				}
			}
		}
		return next(c)
	}
}

// RequireRole returns middleware that rejects users without the given role.
// Must be used after Authenticate.
func (m *Middleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c)
			if user == nil {
				return errcodes.Unauthorized("Not authenticated")
			}
			if user.Role != role {
				return errcodes.Forbidden(msgNotEnoughPermissions)
			}
			return next(c)
		}
	}
}

// UserFromContext returns the user stored by Authenticate or
// AuthenticateOptional, or nil for anonymous requests.
func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(contextKeyUser).(*models.User)
	return user
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
