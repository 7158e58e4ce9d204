// Command server runs the burn ledger HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burnwatch/internal/app"
	"burnwatch/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: auto-resolve)")
	flag.Parse()

	application, err := app.Bootstrap(app.Options{
		ConfigPath:   *configPath,
		Banner:       true,
		InstanceLock: true,
		Metrics:      true,
	})
	if err != nil {
		slog.Error("Bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.Close()

	cfg := application.Cfg
	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxWindowDays:  cfg.Server.MaxWindowDays,
		MaxHorizonDays: cfg.Server.MaxHorizonDays,
		AppName:        cfg.App.Name,
		AppVersion:     cfg.App.Version,
	}, application.Service, application.Metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server failed", slog.Any("error", err))
			application.Close()
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Shutdown did not drain cleanly", slog.Any("error", err))
	}
	slog.Info("Shutdown complete")
}
