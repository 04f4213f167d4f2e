package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/tutorlane/marketpulse/internal/anomaly"
	"github.com/tutorlane/marketpulse/internal/events"
	"github.com/tutorlane/marketpulse/internal/forecast"
	"github.com/tutorlane/marketpulse/internal/ingest"
	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/metrics"
	"github.com/tutorlane/marketpulse/internal/recommend"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type PipelineConfig struct {
	MarketID         string
	IngestInterval   time.Duration
	ForecastInterval time.Duration
	LookbackHours    int
	HorizonHours     int
	AnomalyMethod    anomaly.Method
	Ingestor         ingest.Ingestor
	Forecaster       *forecast.Forecaster
	Detector         *anomaly.Detector
	Recommender      *recommend.Engine
	History          *queries.HistoryRepository
	Predictions      *queries.PredictionRepository
	Recommendations  *queries.RecommendationRepository
	EventPublisher   *events.Publisher
	Metrics          *metrics.Registry
}

// Pipeline runs two loops for one market: a fast ingest loop pulling
// snapshots, and a slower forecast loop that rebuilds predictions and
// recommendations from the stored history.
type Pipeline struct {
	config  PipelineConfig
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.IngestInterval == 0 {
		cfg.IngestInterval = 5 * time.Minute
	}
	if cfg.ForecastInterval == 0 {
		cfg.ForecastInterval = time.Hour
	}
	if cfg.LookbackHours <= 0 {
		cfg.LookbackHours = 720
	}
	if cfg.HorizonHours <= 0 {
		cfg.HorizonHours = 24
	}
	if cfg.AnomalyMethod == "" {
		cfg.AnomalyMethod = anomaly.MethodEnsemble
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)
	go p.run()

	logger.WithMarket(p.config.MarketID).Info("Pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	logger.WithMarket(p.config.MarketID).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ingestTicker := time.NewTicker(p.config.IngestInterval)
	defer ingestTicker.Stop()
	forecastTicker := time.NewTicker(p.config.ForecastInterval)
	defer forecastTicker.Stop()

	// Run both immediately on start
	p.runIngest()
	p.runForecastCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ingestTicker.C:
			p.runIngest()
		case <-forecastTicker.C:
			p.runForecastCycle()
		}
	}
}

// runIngest pulls one snapshot and upserts its hourly record.
func (p *Pipeline) runIngest() {
	ctx, cancel := context.WithTimeout(p.ctx, p.config.IngestInterval)
	defer cancel()

	marketID := p.config.MarketID

	snapshot, err := p.config.Ingestor.Fetch(ctx, marketID)
	if err != nil {
		logger.WithMarket(marketID).Errorf("Snapshot fetch failed: %v", err)
		p.config.Metrics.IngestErrors.WithLabelValues(marketID).Inc()
		p.config.EventPublisher.Error(marketID, "Snapshot ingestion failed", err)
		return
	}

	record := models.NewHistoricalRecord(snapshot)
	record.Timestamp = record.Timestamp.Truncate(time.Hour)
	record.Hour = record.Timestamp.Hour()

	if err := p.config.History.Insert(ctx, marketID, record); err != nil {
		logger.WithMarket(marketID).Errorf("Failed to persist history record: %v", err)
		p.config.EventPublisher.Error(marketID, "Failed to persist history record", err)
		return
	}

	p.config.EventPublisher.SnapshotCollected(marketID, record)
}

// runForecastCycle rebuilds the forecast, recommendations, and the anomaly
// verdict from the stored window.
func (p *Pipeline) runForecastCycle() {
	ctx, cancel := context.WithTimeout(p.ctx, 2*time.Minute)
	defer cancel()

	marketID := p.config.MarketID
	started := time.Now()

	history, err := p.config.History.GetRecent(ctx, marketID, p.config.LookbackHours)
	if err != nil {
		logger.WithMarket(marketID).Errorf("Failed to load history: %v", err)
		p.config.Metrics.ForecastErrors.WithLabelValues(marketID).Inc()
		p.config.EventPublisher.Error(marketID, "Failed to load history window", err)
		return
	}

	predictions, err := p.forecastStep(ctx, history)
	if err != nil {
		return
	}

	p.recommendStep(ctx, predictions)
	p.anomalyStep(history)

	p.config.Metrics.CycleDuration.WithLabelValues(marketID).Observe(time.Since(started).Seconds())
}

func (p *Pipeline) forecastStep(ctx context.Context, history []models.HistoricalRecord) ([]models.Prediction, error) {
	marketID := p.config.MarketID

	predictions, err := p.config.Forecaster.Forecast(history, p.config.HorizonHours)
	if err != nil {
		logger.WithMarket(marketID).Errorf("Forecast failed: %v", err)
		p.config.Metrics.ForecastErrors.WithLabelValues(marketID).Inc()
		p.config.EventPublisher.Error(marketID, "Forecast failed", err)
		return nil, err
	}

	if err := p.config.Predictions.ReplaceForecast(ctx, marketID, predictions); err != nil {
		logger.WithMarket(marketID).Errorf("Failed to persist forecast: %v", err)
		p.config.EventPublisher.Error(marketID, "Failed to persist forecast", err)
		return nil, err
	}

	p.config.Metrics.ForecastRuns.WithLabelValues(marketID).Inc()

	peak := 0.0
	for i := range predictions {
		if predictions[i].PredictedRatio > peak {
			peak = predictions[i].PredictedRatio
		}
	}
	p.config.Metrics.PeakRatio.WithLabelValues(marketID).Set(peak)

	p.config.EventPublisher.ForecastGenerated(marketID, predictions)
	return predictions, nil
}

func (p *Pipeline) recommendStep(ctx context.Context, predictions []models.Prediction) {
	marketID := p.config.MarketID

	recommendations := p.config.Recommender.Generate(predictions)
	summary := p.config.Recommender.Summarize(recommendations)

	generatedAt := time.Now()
	if len(predictions) > 0 {
		generatedAt = predictions[0].Timestamp.Add(-time.Hour)
	}

	if err := p.config.Recommendations.ReplaceBatch(ctx, marketID, generatedAt, recommendations); err != nil {
		logger.WithMarket(marketID).Errorf("Failed to persist recommendations: %v", err)
		p.config.EventPublisher.Error(marketID, "Failed to persist recommendations", err)
		return
	}

	for _, severity := range []models.Severity{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical,
	} {
		p.config.Metrics.Recommendations.
			WithLabelValues(marketID, string(severity)).
			Set(float64(summary.BySeverity[severity]))
	}

	p.config.EventPublisher.RecommendationsUpdated(marketID, summary)

	if summary.BySeverity[models.SeverityCritical] > 0 {
		p.config.EventPublisher.Alert(
			marketID,
			models.EventSeverityCritical,
			"Critical supply/demand imbalance predicted",
			summary,
		)
	}
}

// anomalyStep checks the latest observed volume against the rest of the
// window with the configured detection method.
func (p *Pipeline) anomalyStep(history []models.HistoricalRecord) {
	if len(history) < 2 {
		return
	}

	marketID := p.config.MarketID

	result, err := p.config.Detector.Detect(anomalyRequest(p.config.AnomalyMethod, history))
	if err != nil {
		logger.WithMarket(marketID).Errorf("Anomaly detection failed: %v", err)
		return
	}

	if result.IsAnomaly {
		p.config.Metrics.AnomaliesFound.WithLabelValues(marketID).Inc()
		p.config.EventPublisher.AnomalyDetected(marketID, &result)
	}
}

// anomalyRequest frames the stored window for the method: cross-sectional
// methods judge the latest volume against the rest of the window,
// time-ordered methods read the whole series.
func anomalyRequest(method anomaly.Method, history []models.HistoricalRecord) anomaly.Request {
	series := make([]models.TimePoint, len(history))
	for i, r := range history {
		series[i] = models.TimePoint{Timestamp: r.Timestamp, Value: float64(r.SessionVolume)}
	}

	return anomaly.Request{
		Method:    method,
		Reference: models.VolumeSeries(history[:len(history)-1]),
		Series:    series,
		Current:   float64(history[len(history)-1].SessionVolume),
	}
}
