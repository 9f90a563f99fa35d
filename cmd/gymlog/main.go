package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/gymlog/internal/config"
	"github.com/claude/gymlog/internal/identity"
	gymmcp "github.com/claude/gymlog/internal/mcp"
	"github.com/claude/gymlog/internal/server"
	"github.com/claude/gymlog/internal/session"
	"github.com/claude/gymlog/internal/storage"
	"github.com/claude/gymlog/internal/telemetry"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("gymlog starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	var cache *storage.PlanCache
	if cfg.Cache.PlanMaxCost > 0 {
		cache, err = storage.NewPlanCache(cfg.Cache.PlanMaxCost, cfg.Cache.PlanTTL)
		if err != nil {
			log.Error("failed to create plan cache", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}
	gw := storage.NewGateway(db, cache)

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.ExportConfig{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		MetricInterval: cfg.Telemetry.MetricInterval,
	}, log)
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	clock := session.SystemClock{}
	registry := session.NewRegistry(clock, cfg.Session.IdleTimeout, log)
	stopReaper := registry.StartReaper(time.Minute)
	defer stopReaper()

	mcpServer := gymmcp.New(db, Version, log)
	opts := server.Options{
		MCP:      gymmcp.NewHTTPHandler(mcpServer),
		Registry: registry,
		Clock:    clock,
		Metrics:  metrics,
	}

	// Serve over tsnet or plain TCP.
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		opts.Identity = server.TailscaleIdentity(lc, db, log)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		dev := identity.DevUser
		dev.ID, err = db.GetOrCreateUser(ctx, dev.Login, dev.DisplayName)
		if err != nil {
			log.Error("failed to create dev user", "error", err)
			os.Exit(1)
		}
		opts.Identity = server.DevIdentity(dev)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)", "user", dev.Login)
	}

	srv := server.New(db, gw, log, opts)
	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	// Live sessions hold timers; unfinished workouts are discarded.
	log.Info("closing live sessions", "count", registry.Len())
	registry.CloseAll()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Warn("telemetry shutdown", "error", err)
	}
	log.Info("server stopped")
}
