package subscriptions

import (
	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
)

// RegisterRoutesWithGroup registers subscription routes on a pre-configured
// group. Every route requires authentication.
func RegisterRoutesWithGroup(g *echo.Group, subscriptionService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		subscriptionService: subscriptionService,
	}

	g.Use(authMiddleware.Authenticate)

	g.POST("", h.create)
	g.GET("", h.listAll)
	g.GET("/me", h.listMine)
	g.POST("/:id/cancel", h.cancel)
}
