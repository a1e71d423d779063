package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	p := New()
	e := echo.New()
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	e.Use(p.Middleware())
	e.GET("/api/publications/:id", func(c echo.Context) error {
		if c.Param("id") == "404" {
			return errcodes.NotFound("Publication")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, path := range []string{"/api/publications/1", "/api/publications/2", "/api/publications/404"} {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/api/publications/:id", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/api/publications/:id", "404")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(p.InFlight.WithLabelValues(http.MethodGet, "/api/publications/:id")), 0)
}

func TestCatalogMutation(t *testing.T) {
	t.Parallel()

	p := New()
	p.CatalogMutation("create")
	p.CatalogMutation("create")
	p.CatalogMutation("delete")

	assert.InDelta(t, 2, testutil.ToFloat64(p.CatalogMutations.WithLabelValues("create")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.CatalogMutations.WithLabelValues("delete")), 0)

	var nilProm *Prom
	assert.NotPanics(t, func() { nilProm.CatalogMutation("create") })
}

func TestHandler(t *testing.T) {
	t.Parallel()

	p := New()
	p.CatalogMutation("update")

	e := echo.New()
	e.GET("/metrics", p.Handler())

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `newsstand_catalog_mutations_total{op="update"} 1`)
}
