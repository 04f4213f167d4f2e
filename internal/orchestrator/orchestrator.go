package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/tutorlane/marketpulse/internal/anomaly"
	"github.com/tutorlane/marketpulse/internal/events"
	"github.com/tutorlane/marketpulse/internal/forecast"
	"github.com/tutorlane/marketpulse/internal/ingest"
	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/metrics"
	"github.com/tutorlane/marketpulse/internal/recommend"
	"github.com/tutorlane/marketpulse/pkg/config"
	"github.com/tutorlane/marketpulse/pkg/database"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
)

// Orchestrator owns one forecasting pipeline per active market plus the
// shared event bus and metrics registry.
type Orchestrator struct {
	config      *config.Config
	db          *database.DB
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	metrics     *metrics.Registry
	pipelines   map[string]*Pipeline
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc

	forecastConfig  forecast.Config
	anomalyConfig   anomaly.Config
	anomalyMethod   anomaly.Method
	recommendConfig recommend.Config
}

func New(cfg *config.Config, db *database.DB, reg *metrics.Registry) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	// Subscribe event logger to all events
	allEvents := eventBus.SubscribeAll()
	eventLogger := events.NewEventLogger(db, allEvents)

	forecastCfg := forecast.Config{
		Alpha:         cfg.Forecast.Alpha,
		Beta:          cfg.Forecast.Beta,
		Gamma:         cfg.Forecast.Gamma,
		SeasonLength:  cfg.Forecast.SeasonLength,
		MinConfidence: cfg.Forecast.MinConfidence,
		MaxConfidence: cfg.Forecast.MaxConfidence,
	}

	anomalyCfg := anomaly.Config{
		ZScoreThreshold:     cfg.Anomaly.ZScoreThreshold,
		MADThreshold:        cfg.Anomaly.MADThreshold,
		IQRMultiplier:       cfg.Anomaly.IQRMultiplier,
		Window:              cfg.Anomaly.MovingWindow,
		VolatilityThreshold: cfg.Anomaly.VolatilityThreshold,
		MinMethodsAgreement: cfg.Anomaly.EnsembleQuorum,
	}

	recommendCfg := recommend.Config{
		OptimalRatio:  cfg.Recommend.OptimalRatio,
		SurgeIncrease: cfg.Recommend.SurgeIncrease,
		RatioFloor:    cfg.Recommend.RatioFloor,
		SupplyGapMin:  cfg.Recommend.SupplyGapMin,
	}

	return &Orchestrator{
		config:          cfg,
		db:              db,
		eventBus:        eventBus,
		eventLogger:     eventLogger,
		metrics:         reg,
		pipelines:       make(map[string]*Pipeline),
		ctx:             ctx,
		cancel:          cancel,
		forecastConfig:  forecastCfg,
		anomalyConfig:   anomalyCfg,
		anomalyMethod:   anomaly.Method(cfg.Anomaly.Method),
		recommendConfig: recommendCfg,
	}
}

func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.eventLogger.Start()
	return nil
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.mu.Lock()
	for marketID, pipeline := range o.pipelines {
		logger.Infof("Stopping pipeline for market %s", marketID)
		pipeline.Stop()
	}
	o.mu.Unlock()

	o.cancel()
	o.eventLogger.Stop()
	o.eventBus.Close()

	logger.Info("Orchestrator stopped")
}

// StartMarket wires a pipeline for the market and begins its cycles. The
// market config can narrow the lookback and horizon; zero values fall back
// to the service-wide settings.
func (o *Orchestrator) StartMarket(market *models.Market, ing ingest.Ingestor) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.pipelines[market.ID]; exists {
		return fmt.Errorf("pipeline already exists for market %s", market.ID)
	}

	lookback := o.config.Forecast.LookbackHours
	horizon := o.config.Forecast.HorizonHours
	if market.Config != nil {
		if market.Config.LookbackHours > 0 {
			lookback = market.Config.LookbackHours
		}
		if market.Config.HorizonHours > 0 {
			horizon = market.Config.HorizonHours
		}
	}

	pipeline := NewPipeline(PipelineConfig{
		MarketID:         market.ID,
		IngestInterval:   o.config.Orchestrator.IngestInterval,
		ForecastInterval: o.config.Orchestrator.Interval,
		LookbackHours:    lookback,
		HorizonHours:     horizon,
		AnomalyMethod:    o.anomalyMethod,
		Ingestor:         ing,
		Forecaster:       forecast.New(o.forecastConfig),
		Detector:         anomaly.New(o.anomalyConfig),
		Recommender:      recommend.New(o.recommendConfig),
		History:          queries.NewHistoryRepository(o.db.DB),
		Predictions:      queries.NewPredictionRepository(o.db.DB),
		Recommendations:  queries.NewRecommendationRepository(o.db.DB),
		EventPublisher:   events.NewPublisher(o.eventBus),
		Metrics:          o.metrics,
	})

	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	o.pipelines[market.ID] = pipeline
	logger.WithMarket(market.ID).Info("Market pipeline started")

	return nil
}

func (o *Orchestrator) StopMarket(marketID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pipeline, exists := o.pipelines[marketID]
	if !exists {
		return fmt.Errorf("no pipeline found for market %s", marketID)
	}

	pipeline.Stop()
	delete(o.pipelines, marketID)
	logger.WithMarket(marketID).Info("Market pipeline stopped")

	return nil
}

func (o *Orchestrator) GetMarketStatus(marketID string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	pipeline, exists := o.pipelines[marketID]
	if !exists {
		return false, fmt.Errorf("no pipeline found for market %s", marketID)
	}

	return pipeline.IsRunning(), nil
}

func (o *Orchestrator) ListRunningMarkets() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	markets := make([]string, 0, len(o.pipelines))
	for marketID, pipeline := range o.pipelines {
		if pipeline.IsRunning() {
			markets = append(markets, marketID)
		}
	}
	return markets
}

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}
