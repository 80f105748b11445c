// Package main is the entry point for the sector backtesting service. It
// wires the SQLite stores, the data service client, the backtest engine and
// the HTTP API, then runs until signalled.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Soham1117/StockApp/internal/clientdata"
	"github.com/Soham1117/StockApp/internal/clients/dataservice"
	"github.com/Soham1117/StockApp/internal/config"
	"github.com/Soham1117/StockApp/internal/database"
	"github.com/Soham1117/StockApp/internal/modules/backtest"
	backtesthandlers "github.com/Soham1117/StockApp/internal/modules/backtest/handlers"
	"github.com/Soham1117/StockApp/internal/modules/benchmarks"
	"github.com/Soham1117/StockApp/internal/modules/fundamentals"
	"github.com/Soham1117/StockApp/internal/modules/universe"
	"github.com/Soham1117/StockApp/internal/reliability"
	"github.com/Soham1117/StockApp/internal/scheduler"
	"github.com/Soham1117/StockApp/internal/server"
	"github.com/Soham1117/StockApp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting backtest service")

	// Databases.
	universeDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("universe.db"),
		Name: "universe",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open universe database")
	}
	defer universeDB.Close()

	benchmarksDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("benchmarks.db"),
		Name: "benchmarks",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open benchmarks database")
	}
	defer benchmarksDB.Close()

	clientDataDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client data database")
	}
	defer clientDataDB.Close()

	for _, db := range []*database.DB{universeDB, benchmarksDB, clientDataDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories and clients.
	cacheRepo := clientdata.NewRepository(clientDataDB.Conn())
	statementsCache := clientdata.NewTableCache(cacheRepo, "dataservice_statements")
	dataClient := dataservice.NewClient(cfg.DataServiceURL, statementsCache, log)

	universeRepo := universe.NewRepository(universeDB.Conn(), log)
	benchmarkRepo := benchmarks.NewRepository(benchmarksDB.Conn(), log)

	// Backtest engine.
	progress := backtest.NewProgressBroker()
	resolver := fundamentals.NewResolver(dataClient, fundamentals.NewSnapshotCache(cfg.SnapshotCacheSize), log)
	backtestService := backtest.NewService(
		universeRepo,
		dataClient,
		resolver,
		benchmarkRepo,
		progress,
		log,
		cfg.Workers,
	)

	// Optional S3 report archiving.
	var exporter backtesthandlers.ReportExporter
	if cfg.ExportBucket != "" {
		s3Exporter, err := reliability.NewReportExporter(context.Background(), cfg.ExportBucket, cfg.ExportPrefix, log)
		if err != nil {
			log.Warn().Err(err).Msg("Report export disabled, AWS config unavailable")
		} else {
			exporter = s3Exporter
			log.Info().Str("bucket", cfg.ExportBucket).Msg("Report export enabled")
		}
	}

	// Scheduled maintenance.
	sched := scheduler.New(log)
	syncJob := benchmarks.NewSyncJob(benchmarkRepo, dataClient, cfg.Benchmarks, log)
	if err := sched.Register("30 5 * * *", syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register benchmark sync job")
	}
	if err := sched.Register("@hourly", clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	// Sync benchmarks once at startup so a fresh deployment can serve
	// requests without waiting for the first scheduled run.
	go func() {
		if err := syncJob.Run(); err != nil {
			log.Warn().Err(err).Msg("Startup benchmark sync failed")
		}
	}()

	// HTTP server.
	handlers := backtesthandlers.NewHandler(backtestService, progress, exporter, log)
	srv := server.New(server.Config{
		Log:              log,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		BacktestHandlers: handlers,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Stopped")
}
