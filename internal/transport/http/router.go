package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certdesk/pkg/platform/middleware/admin"
	"certdesk/pkg/platform/middleware/device"
	"certdesk/pkg/platform/middleware/request"
)

// RouteRegistrar is implemented by every module handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// Deps are the handlers and settings the router is built from.
type Deps struct {
	Logger         *slog.Logger
	Registration   RouteRegistrar
	Certificates   RouteRegistrar
	Health         RouteRegistrar
	Gatherer       prometheus.Gatherer
	RequestMetrics *request.Metrics
	AdminToken     string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires all public endpoints with middleware. Probes and metrics
// sit outside the request timeout; generation endpoints sit behind the
// admin token gate when a token is configured.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(device.Device)
	r.Use(request.Logger(d.Logger))
	if d.RequestMetrics != nil {
		r.Use(request.LatencyMiddleware(d.RequestMetrics))
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if d.MaxBodyBytes > 0 {
			r.Use(request.BodyLimit(d.MaxBodyBytes))
		}
		if d.RequestTimeout > 0 {
			r.Use(request.Timeout(d.RequestTimeout))
		}

		d.Registration.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			d.Certificates.Register(r)
		})
	})

	return r
}
