package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorlane/marketpulse/api/handlers"
	"github.com/tutorlane/marketpulse/api/middleware"
	"github.com/tutorlane/marketpulse/api/websocket"
	"github.com/tutorlane/marketpulse/internal/anomaly"
	"github.com/tutorlane/marketpulse/internal/auth"
	"github.com/tutorlane/marketpulse/internal/forecast"
	"github.com/tutorlane/marketpulse/internal/ingest"
	"github.com/tutorlane/marketpulse/internal/metrics"
	"github.com/tutorlane/marketpulse/pkg/config"
	"github.com/tutorlane/marketpulse/pkg/database"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type Server struct {
	router        *gin.Engine
	httpServer    *http.Server
	config        *config.Config
	db            *database.DB
	authService   *auth.Service
	metrics       *metrics.Registry
	wsHub         *websocket.Hub
	wsBridge      *websocket.EventBridge
	marketManager handlers.MarketManager
}

func NewServer(cfg *config.Config, db *database.DB, marketManager handlers.MarketManager, reg *metrics.Registry) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTDuration)
	wsHub := websocket.NewHub(&cfg.WebSocket, reg)

	s := &Server{
		router:        router,
		config:        cfg,
		db:            db,
		authService:   authService,
		metrics:       reg,
		wsHub:         wsHub,
		marketManager: marketManager,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if marketManager != nil {
		eventsChan := marketManager.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.API.CORS)))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

// NewIngestorFactory builds the per-market snapshot source. Markets can
// point at their own endpoint; everything else comes from the ingest config.
func NewIngestorFactory(ingestCfg config.IngestConfig) handlers.IngestorFactory {
	return func(market *models.Market) ingest.Ingestor {
		if ingestCfg.Type == "mock" {
			return ingest.NewMockIngestor()
		}

		endpoint := ingestCfg.Endpoint
		if market.Config != nil && market.Config.IngestEndpoint != "" {
			endpoint = market.Config.IngestEndpoint
		}

		httpIngestor := ingest.NewHTTPIngestor(ingest.HTTPIngestorConfig{
			Endpoint: endpoint,
			Timeout:  ingestCfg.Timeout,
		})

		return ingest.NewResilientIngestor(ingest.ResilientIngestorConfig{
			Ingestor:      httpIngestor,
			MaxFailures:   ingestCfg.CircuitBreaker.MaxFailures,
			Timeout:       ingestCfg.CircuitBreaker.Timeout,
			RetryAttempts: ingestCfg.RetryAttempts,
		})
	}
}

func (s *Server) setupRoutes() {
	// Repositories
	userRepo := queries.NewUserRepository(s.db.DB)
	marketRepo := queries.NewMarketRepository(s.db.DB)
	historyRepo := queries.NewHistoryRepository(s.db.DB)
	predictionRepo := queries.NewPredictionRepository(s.db.DB)
	recommendationRepo := queries.NewRecommendationRepository(s.db.DB)
	eventsRepo := queries.NewEventRepository(s.db.DB)

	forecaster := forecast.New(forecast.Config{
		Alpha:         s.config.Forecast.Alpha,
		Beta:          s.config.Forecast.Beta,
		Gamma:         s.config.Forecast.Gamma,
		SeasonLength:  s.config.Forecast.SeasonLength,
		MinConfidence: s.config.Forecast.MinConfidence,
		MaxConfidence: s.config.Forecast.MaxConfidence,
	})

	detector := anomaly.New(anomaly.Config{
		ZScoreThreshold:     s.config.Anomaly.ZScoreThreshold,
		MADThreshold:        s.config.Anomaly.MADThreshold,
		IQRMultiplier:       s.config.Anomaly.IQRMultiplier,
		Window:              s.config.Anomaly.MovingWindow,
		VolatilityThreshold: s.config.Anomaly.VolatilityThreshold,
		MinMethodsAgreement: s.config.Anomaly.EnsembleQuorum,
	})

	// Handlers
	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(userRepo, s.authService)
	marketHandler := handlers.NewMarketHandler(marketRepo, historyRepo, s.marketManager, NewIngestorFactory(s.config.Ingest))
	forecastHandler := handlers.NewForecastHandler(
		historyRepo, predictionRepo, recommendationRepo, eventsRepo,
		forecaster, s.config.Forecast.LookbackHours, &s.config.API,
	)
	anomalyHandler := handlers.NewAnomalyHandler(detector)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	if s.config.Prometheus.Enabled {
		path := s.config.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(s.metrics.Handler()))
	}

	// Auth routes
	authGroup := s.router.Group("/auth")
	authGroup.Use(middleware.AuthRateLimiter())
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		// Markets
		protected.GET("/markets", marketHandler.List)
		protected.POST("/markets", marketHandler.Create)
		protected.GET("/markets/:id", marketHandler.Get)
		protected.PUT("/markets/:id", marketHandler.Update)
		protected.DELETE("/markets/:id", marketHandler.Delete)
		protected.GET("/markets/:id/status", marketHandler.GetStatus)

		// History and forecasts
		protected.GET("/markets/:id/history", forecastHandler.GetHistory)
		protected.GET("/markets/:id/forecast", forecastHandler.GetForecast)
		protected.GET("/markets/:id/forecast/at-risk", forecastHandler.GetAtRisk)
		protected.POST("/markets/:id/forecast/preview", forecastHandler.PreviewForecast)

		// Recommendations
		protected.GET("/markets/:id/recommendations", forecastHandler.GetRecommendations)

		// Events
		protected.GET("/markets/:id/events", forecastHandler.GetEvents)
		protected.GET("/events/recent", forecastHandler.GetRecentEvents)

		// Anomaly backtesting
		protected.POST("/anomaly/detect", anomalyHandler.Detect)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
