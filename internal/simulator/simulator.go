package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tutorlane/marketpulse/internal/logger"
)

type Config struct {
	Port int
}

// Simulator serves fake booking-system snapshots over HTTP so the service
// can run end to end without the real upstream.
type Simulator struct {
	config     Config
	markets    map[string]*MarketSim
	mu         sync.RWMutex
	httpServer *http.Server
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	return &Simulator{
		config:  cfg,
		markets: make(map[string]*MarketSim),
	}
}

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Simulator) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", cors(s.healthHandler))
	mux.HandleFunc("/snapshot/", cors(s.snapshotHandler))
	mux.HandleFunc("/markets", cors(s.listMarketsHandler))
	mux.HandleFunc("/markets/", cors(s.marketHandler))
	mux.HandleFunc("/surge", cors(s.surgeHandler))
	mux.HandleFunc("/pattern", cors(s.patternHandler))

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) GetOrCreateMarket(marketID string) *MarketSim {
	s.mu.Lock()
	defer s.mu.Unlock()

	if market, exists := s.markets[marketID]; exists {
		return market
	}

	market := NewMarketSim(marketID, MarketSimConfig{})
	market.SetPattern(PatternSchoolWeek)
	s.markets[marketID] = market

	logger.Infof("Created new simulated market: %s", marketID)
	return market
}

func (s *Simulator) GetMarket(marketID string) (*MarketSim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	market, exists := s.markets[marketID]
	return market, exists
}

// HTTP Handlers

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "market-simulator",
	})
}

func (s *Simulator) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	marketID := r.URL.Path[len("/snapshot/"):]
	if marketID == "" {
		http.Error(w, "market ID required", http.StatusBadRequest)
		return
	}

	market := s.GetOrCreateMarket(marketID)
	snapshot := market.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"market_id":          snapshot.MarketID,
		"timestamp":          snapshot.Timestamp.Format(time.RFC3339),
		"sessions_requested": snapshot.SessionsRequested,
		"tutors_online":      snapshot.TutorsOnline,
		"tutors_active":      snapshot.TutorsActive,
	})
}

func (s *Simulator) listMarketsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	markets := make([]map[string]interface{}, 0, len(s.markets))
	for id, market := range s.markets {
		markets = append(markets, map[string]interface{}{
			"id":      id,
			"pattern": market.GetPattern(),
		})
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"markets": markets,
		"count":   len(markets),
	})
}

func (s *Simulator) marketHandler(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Path[len("/markets/"):]
	if marketID == "" {
		http.Error(w, "market ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getMarketHandler(w, r, marketID)
	case http.MethodPost:
		s.createMarketHandler(w, r, marketID)
	case http.MethodPut:
		s.updateMarketHandler(w, r, marketID)
	case http.MethodDelete:
		s.deleteMarketHandler(w, r, marketID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Simulator) getMarketHandler(w http.ResponseWriter, r *http.Request, marketID string) {
	market, exists := s.GetMarket(marketID)
	if !exists {
		http.Error(w, "market not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(market.Status())
}

type CreateMarketRequest struct {
	BaseVolume int     `json:"base_volume"`
	BaseTutors int     `json:"base_tutors"`
	Variance   float64 `json:"variance"`
	Pattern    string  `json:"pattern"`
}

func (s *Simulator) createMarketHandler(w http.ResponseWriter, r *http.Request, marketID string) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	market := NewMarketSim(marketID, MarketSimConfig{
		BaseVolume: req.BaseVolume,
		BaseTutors: req.BaseTutors,
		Variance:   req.Variance,
	})
	if req.Pattern != "" {
		market.SetPattern(ParsePattern(req.Pattern))
	}

	s.mu.Lock()
	s.markets[marketID] = market
	s.mu.Unlock()

	logger.Infof("Created market %s with pattern %s", marketID, market.GetPattern())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(market.Status())
}

type UpdateMarketRequest struct {
	BaseVolume   *int     `json:"base_volume"`
	BaseTutors   *int     `json:"base_tutors"`
	Variance     *float64 `json:"variance"`
	SupplyFollow *float64 `json:"supply_follow"`
}

func (s *Simulator) updateMarketHandler(w http.ResponseWriter, r *http.Request, marketID string) {
	market, exists := s.GetMarket(marketID)
	if !exists {
		http.Error(w, "market not found", http.StatusNotFound)
		return
	}

	var req UpdateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.BaseVolume != nil {
		market.SetBaseVolume(*req.BaseVolume)
	}
	if req.BaseTutors != nil {
		market.SetBaseTutors(*req.BaseTutors)
	}
	if req.Variance != nil {
		market.SetVariance(*req.Variance)
	}
	if req.SupplyFollow != nil {
		market.SetSupplyFollow(*req.SupplyFollow)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(market.Status())
}

func (s *Simulator) deleteMarketHandler(w http.ResponseWriter, r *http.Request, marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.markets[marketID]; !exists {
		http.Error(w, "market not found", http.StatusNotFound)
		return
	}

	delete(s.markets, marketID)
	logger.Infof("Deleted market %s", marketID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "market deleted"})
}

type SurgeRequest struct {
	MarketID     string `json:"market_id"`
	TargetVolume int    `json:"target_volume"`
	Duration     string `json:"duration"`
	RampUp       string `json:"ramp_up"`
}

func (s *Simulator) surgeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SurgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	market := s.GetOrCreateMarket(req.MarketID)

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		duration = 2 * time.Hour
	}

	rampUp, err := time.ParseDuration(req.RampUp)
	if err != nil {
		rampUp = 15 * time.Minute
	}

	market.InjectSurge(req.TargetVolume, duration, rampUp)

	logger.Infof("Injected surge on market %s: target=%d, duration=%s",
		req.MarketID, req.TargetVolume, duration)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "surge injected",
		"market_id":     req.MarketID,
		"target_volume": req.TargetVolume,
		"duration":      duration.String(),
		"ramp_up":       rampUp.String(),
	})
}

type PatternRequest struct {
	MarketID string `json:"market_id"`
	Pattern  string `json:"pattern"` // "steady", "school_week", "evening", "random", "exam_season"
}

func (s *Simulator) patternHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	market := s.GetOrCreateMarket(req.MarketID)
	market.SetPattern(ParsePattern(req.Pattern))

	logger.Infof("Set pattern %s on market %s", req.Pattern, req.MarketID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "pattern set",
		"market_id": req.MarketID,
		"pattern":   req.Pattern,
	})
}
