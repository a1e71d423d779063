package publications

import (
	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
)

// RegisterRoutesWithGroup registers publication routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, publicationService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		publicationService: publicationService,
	}

	g.GET("", h.list)
	g.POST("", h.create, authMiddleware.Authenticate)
	g.GET("/all", h.listAll, authMiddleware.Authenticate)
	g.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	g.PUT("/:id", h.update, authMiddleware.Authenticate)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate)
}
