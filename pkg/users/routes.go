package users

import (
	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
)

// RegisterRoutesWithGroup registers user routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, userService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		userService: userService,
	}

	g.POST("/register", h.register)
	g.POST("/bootstrap-admin", h.bootstrapAdmin)

	g.GET("", h.list, authMiddleware.Authenticate)
	g.GET("/:id", h.retrieve, authMiddleware.Authenticate)
	g.PATCH("/:id", h.update, authMiddleware.Authenticate)
}
