// Package metrics exposes Prometheus collectors for HTTP traffic and catalog
// mutations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsstand"

type Prom struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	CatalogMutations *prometheus.CounterVec
}

// New builds the collectors on a private registry so that tests can create
// as many as they like.
func New() *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		CatalogMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_mutations_total",
				Help:      "Successful publication catalog mutations by operation.",
			},
			[]string{"op"},
		),
	}
	p.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.CatalogMutations,
	)
	return p
}

// Middleware records every request under its route template.
func (p *Prom) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			method := c.Request().Method
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			p.InFlight.WithLabelValues(method, route).Inc()
			defer p.InFlight.WithLabelValues(method, route).Dec()

			err := next(c)

			label := strconv.Itoa(statusOf(c, err))
			p.RequestsTotal.WithLabelValues(method, route, label).Inc()
			p.RequestsDuration.WithLabelValues(method, route, label).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf predicts the status the error handler will write, since it runs
// after this middleware returns.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var codeErr *errcodes.Error
	if errors.As(err, &codeErr) {
		return codeErr.HTTPCode
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// CatalogMutation counts one successful catalog mutation. Safe on a nil
// receiver.
func (p *Prom) CatalogMutation(op string) {
	if p == nil {
		return
	}
	p.CatalogMutations.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}

// Registry exposes the underlying registry.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}
