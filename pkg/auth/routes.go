package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the auth routes on g.
func RegisterRoutesWithGroup(g *echo.Group, authService *Service, authMiddleware *Middleware) {
	h := &handler{
		authService: authService,
	}

	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, authMiddleware.Authenticate)
}
