package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/binder"
	"github.com/newsstandhq/newsstand/pkg/cache"
	"github.com/newsstandhq/newsstand/pkg/config"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/metrics"
	"github.com/newsstandhq/newsstand/pkg/publications"
	"github.com/newsstandhq/newsstand/pkg/subscriptions"
	"github.com/newsstandhq/newsstand/pkg/testutils"
	"github.com/newsstandhq/newsstand/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// Deps are the long-lived collaborators the server shares with main.
type Deps struct {
	Cache   cache.Cache
	Metrics *metrics.Prom
}

func New(cfg *config.Config, db *bun.DB, deps Deps) (*http.Server, error) {
	e, err := newEcho(cfg, db, deps)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, deps Deps) (*echo.Echo, error) {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(deps.Metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSAllowedOrigin},
		AllowCredentials: true,
	}))

	health.RegisterRoutes(e)
	e.GET("/metrics", deps.Metrics.Handler())

	authService := auth.NewService(db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	api := e.Group("/api")

	auth.RegisterRoutesWithGroup(api.Group("/auth"), authService, authMiddleware)

	users.RegisterRoutesWithGroup(api.Group("/users"), users.NewService(db, cfg.DatabaseMaxRetries), authMiddleware)

	publicationService := publications.NewService(db, publications.ServiceOptions{
		Cache:      deps.Cache,
		CacheTTL:   cfg.ListingCacheTTL,
		Metrics:    deps.Metrics,
		MaxRetries: cfg.DatabaseMaxRetries,
	})
	publications.RegisterRoutesWithGroup(api.Group("/publications"), publicationService, authMiddleware)

	subscriptionService := subscriptions.NewService(db, cfg.DatabaseMaxRetries)
	subscriptions.RegisterRoutesWithGroup(api.Group("/subscriptions"), subscriptionService, authMiddleware)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db, subscriptionService)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
