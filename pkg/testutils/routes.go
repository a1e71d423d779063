// Package testutils exposes fixture endpoints for end-to-end suites. They are
// mounted only when the environment is "test".
package testutils

import (
	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/subscriptions"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, subscriptionService *subscriptions.Service) {
	h := &handler{db: db, subscriptionService: subscriptionService}

	g := e.Group("/test")
	g.POST("/users", h.createUser)
	g.DELETE("/data", h.deleteAll)
	g.POST("/subscriptions/:id/lapse", h.lapseSubscription)
	g.POST("/subscriptions/expire", h.expireSubscriptions)
}
