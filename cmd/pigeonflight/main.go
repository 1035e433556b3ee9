package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pigeonflight/internal/api"
	"pigeonflight/pkg/assets"
	"pigeonflight/pkg/config"
	"pigeonflight/pkg/core"
	"pigeonflight/pkg/db"
	"pigeonflight/pkg/db/maintenance"
	"pigeonflight/pkg/logging"
	"pigeonflight/pkg/probe"
	"pigeonflight/pkg/request"
	"pigeonflight/pkg/store"
	"pigeonflight/pkg/terrain"
	"pigeonflight/pkg/tracker"
	"pigeonflight/pkg/version"
)

const defaultConfigPath = "configs/pigeonflight.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to the YAML config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	trace      = flag.Bool("trace", false, "Log every simulation tick")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	logging.EnableTrace = *trace

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("PigeonFlight Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	maintenance.Run(ctx, st, dbConn, appCfg.Assets.CacheName, maintenance.DefaultMaxAge)

	tr := tracker.New()
	reqClient := request.New(st, tr, request.OptionsFromConfig(appCfg.Request))
	assetCache := assets.New(appCfg.Assets, reqClient, st)

	probes := []probe.Probe{
		{
			Name:     "Database",
			Check:    dbConn.PingContext,
			Critical: true,
		},
	}
	if appCfg.Assets.Precache {
		probes = append(probes, probe.Probe{
			Name:     "Asset Precache",
			Check:    assetCache.Precache,
			Critical: false, // cache-first serving still falls back to the network
			Timeout:  time.Duration(len(appCfg.Assets.List)+1) * appCfg.Request.Timeout.Std(),
		})
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	ctrl := core.NewController(appCfg.Sim, terrain.Synthetic{}, tr)

	return runServer(ctx, appCfg, ctrl, tr, assetCache)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runServer(ctx context.Context, cfg *config.Config, ctrl *core.Controller, tr *tracker.Tracker, assetCache *assets.Cache) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, api.Handlers{
		Simulate: api.NewSimulateHandler(ctrl, cfg.Sim, tr),
		Route:    api.NewRouteHandler(terrain.Synthetic{}),
		Stats:    api.NewStatsHandler(tr),
		Assets:   assetCache.Handler(),
	}, shutdownFunc)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
