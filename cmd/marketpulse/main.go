package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tutorlane/marketpulse/api"
	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/metrics"
	"github.com/tutorlane/marketpulse/internal/orchestrator"
	"github.com/tutorlane/marketpulse/internal/simulator"
	"github.com/tutorlane/marketpulse/pkg/config"
	"github.com/tutorlane/marketpulse/pkg/database"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	seedDemo := flag.Bool("seed-demo", false, "create a demo market with 30 days of history")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *migrate {
		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	if *seedDemo {
		return seedDemoMarket(ctx, db)
	}

	reg := metrics.New()

	orch := orchestrator.New(cfg, db, reg)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	if err := startActiveMarkets(ctx, cfg, db, orch); err != nil {
		return err
	}

	server := api.NewServer(cfg, db, orch, reg)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		orch.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}

	orch.Stop()

	logger.Info("Server stopped gracefully")
	return nil
}

// startActiveMarkets resumes pipelines for every market left active in the
// database from a previous run.
func startActiveMarkets(ctx context.Context, cfg *config.Config, db *database.DB, orch *orchestrator.Orchestrator) error {
	marketRepo := queries.NewMarketRepository(db.DB)

	markets, err := marketRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active markets: %w", err)
	}

	factory := api.NewIngestorFactory(cfg.Ingest)

	for _, market := range markets {
		if err := orch.StartMarket(market, factory(market)); err != nil {
			logger.WithMarket(market.ID).Errorf("Failed to start pipeline: %v", err)
			continue
		}
	}

	logger.Infof("Resumed %d active market pipelines", len(markets))
	return nil
}

// seedDemoMarket creates an algebra demo market and backfills a month of
// school-week history so forecasts work on first start.
func seedDemoMarket(ctx context.Context, db *database.DB) error {
	marketRepo := queries.NewMarketRepository(db.DB)
	historyRepo := queries.NewHistoryRepository(db.DB)

	const demoName = "algebra-demo"

	market, err := marketRepo.GetByName(ctx, demoName)
	if err == queries.ErrMarketNotFound {
		market = models.NewMarket(demoName, "algebra")
		if err := marketRepo.Create(ctx, market); err != nil {
			return fmt.Errorf("failed to create demo market: %w", err)
		}
		logger.WithMarket(market.ID).Info("Created demo market")
	} else if err != nil {
		return fmt.Errorf("failed to look up demo market: %w", err)
	}

	sim := simulator.NewMarketSim(market.ID, simulator.MarketSimConfig{})
	sim.SetPattern(simulator.PatternSchoolWeek)

	records := sim.GenerateHistory(30)
	if err := historyRepo.InsertBatch(ctx, market.ID, records); err != nil {
		return fmt.Errorf("failed to seed history: %w", err)
	}

	logger.WithMarket(market.ID).Infof("Seeded %d history records", len(records))
	return nil
}
