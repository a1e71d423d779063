package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/pkg/errors"
	echologger "github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "newsstand_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = TokenExpiry
)

type handler struct {
	authService *Service
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()
	log := echologger.FromEchoContext(c)

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	setSessionCookie(c, token, int(CookieMaxAge.Seconds()))
	log.Info("user logged in", logger.Data{"user_id": user.ID})

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *handler) logout(c echo.Context) error {
	setSessionCookie(c, "", -1)
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) me(c echo.Context) error {
	user := UserFromContext(c)
	if user == nil {
		return errcodes.Unauthorized("Not authenticated")
	}
	return c.JSON(http.StatusOK, user)
}

func setSessionCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
