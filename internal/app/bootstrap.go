// Package app wires configuration, storage, the upstream client and the burn
// service into a running application. Both binaries go through Bootstrap so
// they agree on paths, logging and config resolution.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"burnwatch/internal/burn"
	"burnwatch/internal/infra"
	"burnwatch/internal/infra/moralis"
	"burnwatch/internal/observability"
	"burnwatch/internal/storage"
)

// Options selects optional bootstrap behavior per binary. The server takes
// the instance lock and registers metrics; the backfill tool skips both so it
// can run against the same database while the server is down without fighting
// over Prometheus registration.
type Options struct {
	ConfigPath   string
	Banner       bool
	InstanceLock bool
	Metrics      bool
}

// App holds the wired application components.
type App struct {
	Cfg     *infra.Config
	Store   *storage.CacheStore
	Service *burn.Service
	Metrics *observability.Metrics

	releaseLock func()
}

// Bootstrap loads config, sets up logging and storage, and wires the burn
// service. Call Close when done.
func Bootstrap(opts Options) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgPath, err)
	}

	slog.SetDefault(infra.NewLogger(cfg))

	if opts.Banner {
		infra.PrintBanner(cfg)
	}

	workDir := infra.GetWorkspaceDir()
	if err := infra.EnsureDir(workDir); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir %s: %w", workDir, err)
	}

	var releaseLock func()
	if opts.InstanceLock {
		releaseLock, err = infra.CreateLockFile(workDir)
		if err != nil {
			return nil, err
		}
	}

	dbPath := cfg.Cache.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(workDir, dbPath)
	}
	store, err := storage.NewCacheStore(dbPath)
	if err != nil {
		if releaseLock != nil {
			releaseLock()
		}
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	slog.Info("Cache store ready", slog.String("path", dbPath))

	var metrics *observability.Metrics
	if opts.Metrics {
		metrics = observability.NewMetrics(infra.AppName)
	}

	limiter := infra.NewRateLimiter(cfg.Moralis.RateLimitBurst, cfg.Moralis.RateLimitPerSec)
	client, err := moralis.NewClient(moralis.Config{
		APIKey:       cfg.Moralis.APIKey,
		BaseURL:      cfg.Moralis.BaseURL,
		Chain:        cfg.Moralis.Chain,
		TokenAddress: cfg.Token.Address,
		DeadAddress:  cfg.Token.DeadAddress,
		Timeout:      time.Duration(cfg.Moralis.TimeoutSec) * time.Second,
		PageLimit:    cfg.Moralis.PageLimit,
		MaxPages:     cfg.Moralis.MaxPages,
	}, limiter, metrics)
	if err != nil {
		store.Close()
		if releaseLock != nil {
			releaseLock()
		}
		return nil, err
	}

	service := burn.NewService(client, store, burn.Config{
		TokenAddress:         cfg.Token.Address,
		DeadAddress:          cfg.Token.DeadAddress,
		DecimalsFallback:     int32(cfg.Token.DecimalsFallback),
		CacheTTL:             time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		SeriesCacheTTL:       time.Duration(cfg.Cache.SeriesTTLSeconds) * time.Second,
		MaxSupplyTokens:      cfg.MaxSupply(),
		AllowHistoricalFetch: cfg.Cache.AllowHistoricalFetch,
	}, metrics)

	return &App{
		Cfg:         cfg,
		Store:       store,
		Service:     service,
		Metrics:     metrics,
		releaseLock: releaseLock,
	}, nil
}

// Close releases storage and the instance lock.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.releaseLock != nil {
		a.releaseLock()
	}
}
