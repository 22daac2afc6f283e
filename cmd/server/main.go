package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookflipfinder/api"
	"bookflipfinder/arbitrage"
	"bookflipfinder/config"
	"bookflipfinder/ingest"
	"bookflipfinder/pricehistory"
	"bookflipfinder/sched"
	"bookflipfinder/scraper"
	"bookflipfinder/storage"
)

func main() {
	defaultCfg := config.DefaultConfig()
	addrDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("BOOKFLIP_ADDR"); ok {
		addrDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("BOOKFLIP_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	dsnDefault := defaultCfg.DatabaseDSN
	if value, ok := config.EnvString("BOOKFLIP_DATABASE_DSN"); ok {
		dsnDefault = value
	}
	sqliteDefault := defaultCfg.SQLitePath
	if value, ok := config.EnvString("BOOKFLIP_SQLITE_PATH"); ok {
		sqliteDefault = value
	}
	intervalDefault := defaultCfg.ScrapeInterval
	if value, ok, err := config.EnvDuration("BOOKFLIP_SCRAPE_INTERVAL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKFLIP_SCRAPE_INTERVAL: %v\n", err)
		os.Exit(1)
	} else if ok {
		intervalDefault = value
	}

	listenAddr := flag.String("addr", addrDefault, "HTTP API listen address")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	databaseDSN := flag.String("db-dsn", dsnDefault, "Postgres DSN (empty selects sqlite)")
	sqlitePath := flag.String("sqlite", sqliteDefault, "SQLite database file path")
	scrapeInterval := flag.Duration("scrape-interval", intervalDefault, "Interval between catalog refresh sweeps")
	noScheduler := flag.Bool("no-scheduler", false, "Disable the periodic refresh scheduler")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.ListenAddr = *listenAddr
	cfg.MetricsAddr = *metricsAddr
	cfg.DatabaseDSN = *databaseDSN
	cfg.SQLitePath = *sqlitePath
	cfg.ScrapeInterval = *scrapeInterval
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.Open(cfg)
	if err != nil {
		slog.Error("opening database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := storage.Migrate(db); err != nil {
		slog.Error("running migrations", slog.Any("error", err))
		os.Exit(1)
	}
	if err := storage.SeedStores(db); err != nil {
		slog.Error("seeding stores", slog.Any("error", err))
		os.Exit(1)
	}

	books := storage.NewBookRepo(db)
	prices := storage.NewPriceRepo(db)
	stores := storage.NewStoreRepo(db)
	alerts := storage.NewAlertRepo(db)

	metrics := scraper.NewMetrics()
	registry, err := buildSourceRegistry(stores, cfg, metrics)
	if err != nil {
		slog.Error("building source registry", slog.Any("error", err))
		os.Exit(1)
	}

	adapter := ingest.NewAdapter(db, books, prices, metrics)
	orchestrator, err := ingest.NewOrchestrator(stores, adapter, registry, metrics, cfg.ScrapeCooldown)
	if err != nil {
		slog.Error("building orchestrator", slog.Any("error", err))
		os.Exit(1)
	}

	engine := arbitrage.NewEngine(books, prices)
	analyzer := pricehistory.NewAnalyzer(books, prices)
	scheduler := sched.New(cfg, orchestrator)

	server := api.NewServer(cfg, books, prices, stores, alerts, engine, analyzer, orchestrator, scheduler)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	if !*noScheduler {
		scheduler.Start()
	}

	go func() {
		slog.Info("api server listening", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
	slog.Info("shutdown complete")
}

// buildSourceRegistry wires a scrape source per active store. Stores
// without a usable search URL template get the deterministic mock
// source so local runs produce data without outbound traffic.
func buildSourceRegistry(stores storage.StoreRepo, cfg *config.Config, metrics *scraper.Metrics) (*scraper.Registry, error) {
	registry := scraper.NewRegistry()

	rows, err := stores.ActiveScrapable(context.Background(), nil)
	if err != nil {
		return nil, err
	}
	for _, store := range rows {
		if store.SearchURLTemplate != "" {
			source, err := scraper.NewSiteSource(store, cfg, metrics)
			if err == nil {
				registry.Register(store.Code, source)
				slog.Info("registered site source", slog.String("store", store.Code))
				continue
			}
			slog.Warn("site source unavailable, using mock",
				slog.String("store", store.Code),
				slog.Any("error", err),
			)
		}
		registry.Register(store.Code, scraper.NewMockSource(store.Code))
		slog.Info("registered mock source", slog.String("store", store.Code))
	}
	return registry, nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
