package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"purehill-revenue/api"
	"purehill-revenue/config"
	"purehill-revenue/metrics"
	"purehill-revenue/models"
	"purehill-revenue/scraper/ota"
	"purehill-revenue/services"
	"purehill-revenue/storage"
	"purehill-revenue/utils"
)

func main() {
	serve := flag.Bool("serve", false, "serve reports over HTTP instead of printing one report")
	importPath := flag.String("import", "", "load raw rows from a CSV file into the configured database and exit")
	delta := flag.Float64("delta", 0, "print a rank simulation for this change to the tracked minimum price")
	flag.Parse()

	// ================== Bootstrap ====================
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel)

	logger.Info("Competitive Rate Intelligence")
	logger.Info("Tracked hotel: %s | Source: %s | Refresh TTL: %ds", cfg.TrackedHotelLabel, cfg.Source, cfg.RefreshTTLSeconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ================== Import ====================
	if *importPath != "" {
		if err := importCSV(ctx, cfg, *importPath, logger); err != nil {
			logger.Error("Import failed: %v", err)
			os.Exit(1)
		}
		return
	}

	// ================== Source ====================
	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("Cannot open %s source: %v", cfg.Source, err)
		os.Exit(1)
	}
	defer closeSource()

	normalizer := services.NewNormalizer(cfg, logger)
	cache := services.NewSnapshotCache(source, normalizer, time.Duration(cfg.RefreshTTLSeconds)*time.Second, logger)
	analyzer := services.NewAnalyzer(cfg, logger)
	recorder := metrics.NewRecorder("")

	// ================== Refresh hooks ====================
	cache.OnRefresh(recorder.ObserveRefresh)
	var publisher storage.ReportPublisher
	if cfg.RedisURL != "" {
		rp, err := storage.NewRedisPublisher(ctx, cfg.RedisURL, time.Duration(cfg.RefreshTTLSeconds)*time.Second, logger)
		if err != nil {
			logger.Warn("Redis unavailable, reports will not be published: %v", err)
		} else {
			publisher = rp
			defer publisher.Close()
		}
	}
	cache.OnRefresh(func(snap *models.Snapshot, err error) {
		if err != nil {
			return
		}
		report := analyzer.Analyze(snap, models.Filter{})
		recorder.ObserveReport(report)
		if publisher == nil {
			return
		}
		if err := publisher.Publish(ctx, report); err != nil {
			logger.Warn("Failed to publish report: %v", err)
		}
	})

	if *serve {
		runServer(ctx, cfg, cache, analyzer, recorder, logger)
		return
	}

	// ================== One-shot report ====================
	snap, err := cache.GetSnapshot(ctx)
	if snap == nil {
		logger.Error("No snapshot available: %v", err)
		os.Exit(1)
	}

	report := analyzer.Analyze(snap, models.Filter{})
	services.PrintRateReport(os.Stdout, report, cfg.ParityTopN)

	if *delta != 0 {
		sim, err := analyzer.Simulate(snap, models.Filter{}, decimal.NewFromFloat(*delta))
		if err != nil {
			logger.Warn("Rank simulation unavailable: %v", err)
		} else {
			services.PrintRankSimulation(os.Stdout, sim)
		}
	}
}

// openSource builds the configured raw source; the returned func releases it
func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.RawSource, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case config.SourcePostgres, config.SourceSQLite:
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.SourcePage:
		pages := ota.NewPageSource(cfg, logger)
		return storage.NewArchivingSource(pages, storage.NewCSVWriter(cfg.CSVFilePath, logger), logger), noop, nil
	default:
		return storage.NewCSVSource(cfg.CSVFilePath, logger), noop, nil
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.SQLStore, error) {
	driver, dsn := storage.DriverSQLite, cfg.SQLitePath
	if cfg.Source == config.SourcePostgres {
		driver, dsn = storage.DriverPostgres, cfg.DatabaseURL
	}
	store, err := storage.NewSQLStore(driver, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := store.CreateTable(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// importCSV copies a raw CSV export into the configured database source
func importCSV(ctx context.Context, cfg *config.Config, path string, logger *utils.Logger) error {
	if cfg.Source != config.SourcePostgres && cfg.Source != config.SourceSQLite {
		return fmt.Errorf("import needs a database source, got %q", cfg.Source)
	}
	rates, err := storage.NewCSVSource(path, logger).Fetch(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.BatchInsert(ctx, rates)
}

func runServer(ctx context.Context, cfg *config.Config, cache *services.SnapshotCache, analyzer *services.Analyzer, recorder *metrics.Recorder, logger *utils.Logger) {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// warm the cache so the first request does not pay for the build
	if _, err := cache.GetSnapshot(ctx); err != nil {
		logger.Warn("Initial snapshot failed, serving will retry on demand: %v", err)
	}

	handler := api.NewRateHandler(cache, analyzer, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, recorder),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed: %v", err)
		}
	}()

	logger.Info("Serving reports on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
