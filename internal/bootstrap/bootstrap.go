// Package bootstrap assembles the application graph shared by the HTTP
// server and the certgen CLI.
package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	"certdesk/internal/certificate/archive"
	certhandler "certdesk/internal/certificate/handler"
	certmetrics "certdesk/internal/certificate/metrics"
	"certdesk/internal/certificate/profile"
	"certdesk/internal/certificate/render"
	"certdesk/internal/certificate/resources"
	certservice "certdesk/internal/certificate/service"
	"certdesk/internal/platform/config"
	"certdesk/internal/platform/health"
	"certdesk/internal/platform/tracer"
	reghandler "certdesk/internal/registration/handler"
	regmetrics "certdesk/internal/registration/metrics"
	regservice "certdesk/internal/registration/service"
	"certdesk/internal/registration/store"
	httptransport "certdesk/internal/transport/http"
	"certdesk/pkg/platform/middleware/request"
)

// ServiceName identifies the service in traces and logs.
const ServiceName = "certdesk"

// App holds the wired services.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Registry      *prometheus.Registry
	Profiles      *profile.Set
	Resources     *resources.Loader
	Registrations *regservice.Service
	Certificates  *certservice.Service

	fs             afero.Fs
	tracing        *tracer.Provider
	requestMetrics *request.Metrics
	traceWriter    io.Writer
	watcher        *resources.Watcher
}

type Option func(*App)

// WithFs replaces the OS filesystem, e.g. with afero.NewMemMapFs in tests.
func WithFs(fsys afero.Fs) Option {
	return func(a *App) {
		a.fs = fsys
	}
}

// WithProfiles replaces the default conference and workshop profiles.
func WithProfiles(set *profile.Set) Option {
	return func(a *App) {
		a.Profiles = set
	}
}

// WithTraceWriter sets where spans are exported when tracing is enabled.
func WithTraceWriter(w io.Writer) Option {
	return func(a *App) {
		a.traceWriter = w
	}
}

// New wires stores, renderer, archiver and services from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	app := &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    prometheus.NewRegistry(),
		Profiles:    profile.Default(),
		fs:          afero.NewOsFs(),
		traceWriter: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracing, err := tracer.NewProvider(cfg.Tracing.Enabled, ServiceName, app.traceWriter)
	if err != nil {
		return nil, err
	}
	app.tracing = tracing

	app.requestMetrics = request.NewMetrics(app.Registry)
	certMetrics := certmetrics.New(app.Registry)
	regMetrics := regmetrics.New(app.Registry)

	regOpts := []regservice.Option{regservice.WithMetrics(regMetrics)}
	for _, p := range app.Profiles.All() {
		path := filepath.Join(cfg.Storage.DataDir, p.StoreFile)
		regOpts = append(regOpts, regservice.WithStore(p.Name, store.NewJSONFileStore(app.fs, path, logger)))
	}
	app.Registrations = regservice.New(logger, regOpts...)

	app.Resources = resources.NewLoader(app.fs, cfg.Resources.Dir,
		resources.WithCacheTTL(cfg.Resources.CacheTTL),
		resources.WithObserver(certMetrics),
	)
	renderer := render.New(app.Resources,
		render.WithLogger(logger),
		render.WithTracer(tracing.Tracer()),
		render.WithMetrics(certMetrics),
	)
	archiver := archive.New(renderer, app.fs, cfg.Storage.OutputDir, cfg.Storage.ArchiveDir,
		archive.WithLogger(logger),
		archive.WithTracer(tracing.Tracer()),
		archive.WithMetrics(certMetrics),
	)
	app.Certificates = certservice.New(app.Profiles, app.Registrations, archiver, logger,
		certservice.WithMetrics(certMetrics),
		certservice.WithTracer(tracing.Tracer()),
	)

	return app, nil
}

// Start launches background work: the resource watcher when enabled.
func (a *App) Start(ctx context.Context) error {
	if !a.Config.Resources.Watch {
		return nil
	}
	w, err := resources.NewWatcher(a.Resources, a.Logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Close stops background work and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	errs = append(errs, a.tracing.Shutdown(ctx))
	return errors.Join(errs...)
}

// CheckResources verifies that every profile's background and fonts exist.
func (a *App) CheckResources(ctx context.Context) error {
	var names []string
	for _, p := range a.Profiles.All() {
		names = append(names, p.Resources()...)
	}
	return a.Resources.Check(ctx, names...)
}

// Handler builds the HTTP router.
func (a *App) Handler() http.Handler {
	h := health.New(a.Config.Environment)
	h.RegisterCheck("resources", a.CheckResources)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:         a.Logger,
		Registration:   reghandler.New(a.Registrations, a.Logger),
		Certificates:   certhandler.New(a.Certificates, a.Logger),
		Health:         h,
		Gatherer:       a.Registry,
		RequestMetrics: a.requestMetrics,
		AdminToken:     a.Config.Server.AdminToken,
		RequestTimeout: a.Config.Server.RequestTimeout,
		MaxBodyBytes:   a.Config.Server.MaxBodyBytes,
	})
}
