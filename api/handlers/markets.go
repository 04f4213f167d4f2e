package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorlane/marketpulse/internal/ingest"
	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
	"github.com/tutorlane/marketpulse/pkg/validation"
)

// MarketManager is the orchestrator surface the API needs.
type MarketManager interface {
	StartMarket(market *models.Market, ing ingest.Ingestor) error
	StopMarket(marketID string) error
	GetMarketStatus(marketID string) (bool, error)
	SubscribeAllEvents() <-chan *models.Event
}

// IngestorFactory builds the snapshot source for a market, honoring any
// per-market endpoint override.
type IngestorFactory func(market *models.Market) ingest.Ingestor

type MarketHandler struct {
	marketRepo  *queries.MarketRepository
	historyRepo *queries.HistoryRepository
	manager     MarketManager
	newIngestor IngestorFactory
}

func NewMarketHandler(marketRepo *queries.MarketRepository, historyRepo *queries.HistoryRepository, manager MarketManager, factory IngestorFactory) *MarketHandler {
	return &MarketHandler{
		marketRepo:  marketRepo,
		historyRepo: historyRepo,
		manager:     manager,
		newIngestor: factory,
	}
}

// verifyMarketOwnership loads the market and checks the authenticated user
// owns it. Writes the error response itself when the check fails.
func (h *MarketHandler) verifyMarketOwnership(c *gin.Context, marketID string) (*models.Market, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}

	market, err := h.marketRepo.GetByID(c.Request.Context(), marketID)
	if err != nil {
		if err == queries.ErrMarketNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "market not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify market ownership"})
		return nil, false
	}

	if market.UserID == nil || *market.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}

	return market, true
}

func (h *MarketHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	markets, err := h.marketRepo.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list markets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  markets,
		"count": len(markets),
	})
}

type CreateMarketRequest struct {
	Name    string               `json:"name" binding:"required"`
	Subject string               `json:"subject"`
	Config  *models.MarketConfig `json:"config"`
}

func (h *MarketHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	name := validation.SanitizeString(req.Name)
	if err := validation.ValidateMarketName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.marketRepo.GetByName(ctx, name); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "market name already in use"})
		return
	} else if err != queries.ErrMarketNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	market := models.NewMarket(name, validation.SanitizeString(req.Subject))
	market.UserID = &userID
	market.Config = req.Config

	if err := h.marketRepo.Create(ctx, market); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create market"})
		return
	}

	running := true
	if err := h.manager.StartMarket(market, h.newIngestor(market)); err != nil {
		logger.WithMarket(market.ID).Errorf("Failed to start pipeline: %v", err)
		running = false
	}

	c.JSON(http.StatusCreated, gin.H{
		"market":           market,
		"pipeline_running": running,
	})
}

func (h *MarketHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	market, err := h.marketRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == queries.ErrMarketNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "market not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch market"})
		return
	}

	c.JSON(http.StatusOK, market)
}

type UpdateMarketRequest struct {
	Status string `json:"status" binding:"required"`
}

// Update changes the market status and keeps the pipeline in sync with it.
func (h *MarketHandler) Update(c *gin.Context) {
	marketID := c.Param("id")

	market, ok := h.verifyMarketOwnership(c, marketID)
	if !ok {
		return
	}

	var req UpdateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status := models.MarketStatus(req.Status)
	if status != models.MarketStatusActive && status != models.MarketStatusPaused {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or paused"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.marketRepo.UpdateStatus(ctx, marketID, status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update market"})
		return
	}
	market.Status = status

	switch status {
	case models.MarketStatusActive:
		if running, _ := h.manager.GetMarketStatus(marketID); !running {
			if err := h.manager.StartMarket(market, h.newIngestor(market)); err != nil {
				logger.WithMarket(marketID).Errorf("Failed to start pipeline: %v", err)
			}
		}
	case models.MarketStatusPaused:
		if err := h.manager.StopMarket(marketID); err != nil {
			logger.WithMarket(marketID).Debugf("Pipeline already stopped: %v", err)
		}
	}

	c.JSON(http.StatusOK, market)
}

func (h *MarketHandler) Delete(c *gin.Context) {
	marketID := c.Param("id")

	if _, ok := h.verifyMarketOwnership(c, marketID); !ok {
		return
	}

	if err := h.manager.StopMarket(marketID); err != nil {
		logger.WithMarket(marketID).Debugf("Pipeline already stopped: %v", err)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.marketRepo.Delete(ctx, marketID); err != nil {
		if err == queries.ErrMarketNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "market not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete market"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "market deleted"})
}

func (h *MarketHandler) GetStatus(c *gin.Context) {
	marketID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	market, err := h.marketRepo.GetByID(ctx, marketID)
	if err != nil {
		if err == queries.ErrMarketNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "market not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch market"})
		return
	}

	running, err := h.manager.GetMarketStatus(marketID)
	if err != nil {
		running = false
	}

	latest, err := h.historyRepo.GetLatest(ctx, marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id":        market.ID,
		"status":           market.Status,
		"pipeline_running": running,
		"latest_snapshot":  latest,
	})
}
