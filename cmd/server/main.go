package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certdesk/internal/bootstrap"
	"certdesk/internal/platform/config"
	"certdesk/internal/platform/httpserver"
	"certdesk/internal/platform/logger"
)

// writeMargin leaves room to flush an archive after the request timeout fires.
const writeMargin = 30 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)

	log.Info("initializing certdesk",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"data_dir", cfg.Storage.DataDir,
		"resources_dir", cfg.Resources.Dir,
		"admin_gate", cfg.Server.AdminToken != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	if err := app.CheckResources(ctx); err != nil {
		log.Warn("certificate resources incomplete", "error", err)
	}
	if err := app.Start(ctx); err != nil {
		log.Error("failed to start background workers", "error", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.Server.Addr, "error", err)
		os.Exit(1)
	}

	srv := httpserver.New(cfg.Server.Addr, app.Handler(), cfg.Server.RequestTimeout+writeMargin)
	runErr := httpserver.Run(ctx, srv, ln, log, httpserver.DefaultShutdownTimeout)

	closeCtx, cancel := context.WithTimeout(context.Background(), httpserver.DefaultShutdownTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		log.Error("failed to release resources", "error", err)
	}

	if runErr != nil {
		log.Error("server error", "error", runErr)
		os.Exit(1)
	}
	log.Info("server stopped")
}
