package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorlane/marketpulse/internal/forecast"
	"github.com/tutorlane/marketpulse/pkg/config"
	"github.com/tutorlane/marketpulse/pkg/database/queries"
	"github.com/tutorlane/marketpulse/pkg/models"
	"github.com/tutorlane/marketpulse/pkg/validation"
)

// ForecastHandler serves the read side of the pipeline: stored history,
// predictions, recommendations, and events, plus ad-hoc forecast previews.
type ForecastHandler struct {
	historyRepo        *queries.HistoryRepository
	predictionRepo     *queries.PredictionRepository
	recommendationRepo *queries.RecommendationRepository
	eventsRepo         *queries.EventRepository
	forecaster         *forecast.Forecaster
	lookbackHours      int
	config             *config.APIConfig
}

func NewForecastHandler(
	historyRepo *queries.HistoryRepository,
	predictionRepo *queries.PredictionRepository,
	recommendationRepo *queries.RecommendationRepository,
	eventsRepo *queries.EventRepository,
	forecaster *forecast.Forecaster,
	lookbackHours int,
	cfg *config.APIConfig,
) *ForecastHandler {
	if lookbackHours <= 0 {
		lookbackHours = 720
	}
	return &ForecastHandler{
		historyRepo:        historyRepo,
		predictionRepo:     predictionRepo,
		recommendationRepo: recommendationRepo,
		eventsRepo:         eventsRepo,
		forecaster:         forecaster,
		lookbackHours:      lookbackHours,
		config:             cfg,
	}
}

func (h *ForecastHandler) getDefaultLimit() int {
	if h.config != nil && h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 100
}

func (h *ForecastHandler) getMaxLimit() int {
	if h.config != nil && h.config.MaxLimit > 0 {
		return h.config.MaxLimit
	}
	return 1000
}

func (h *ForecastHandler) GetHistory(c *gin.Context) {
	marketID := c.Param("id")
	ctx := c.Request.Context()

	if c.Query("from") != "" || c.Query("to") != "" || c.Query("range") != "" {
		from, to := h.parseTimeRange(c)
		records, err := h.historyRepo.GetRange(ctx, marketID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"market_id": marketID,
			"from":      from,
			"to":        to,
			"data":      records,
			"count":     len(records),
		})
		return
	}

	limit := h.parseLimit(c, h.getDefaultLimit())
	records, err := h.historyRepo.GetRecent(ctx, marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id": marketID,
		"data":      records,
		"count":     len(records),
	})
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	marketID := c.Param("id")

	predictions, err := h.predictionRepo.GetForecast(c.Request.Context(), marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id": marketID,
		"data":      predictions,
		"count":     len(predictions),
	})
}

func (h *ForecastHandler) GetAtRisk(c *gin.Context) {
	marketID := c.Param("id")

	predictions, err := h.predictionRepo.GetAtRisk(c.Request.Context(), marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch at-risk periods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id": marketID,
		"data":      predictions,
		"count":     len(predictions),
	})
}

type PreviewForecastRequest struct {
	HorizonHours int `json:"horizon_hours" binding:"required"`
}

// PreviewForecast runs a forecast over the stored window without persisting
// the result, so operators can try longer horizons.
func (h *ForecastHandler) PreviewForecast(c *gin.Context) {
	marketID := c.Param("id")

	var req PreviewForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := validation.ValidateHorizon(req.HorizonHours); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := h.historyRepo.GetRecent(c.Request.Context(), marketID, h.lookbackHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	predictions, err := h.forecaster.Forecast(history, req.HorizonHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id":     marketID,
		"horizon_hours": req.HorizonHours,
		"data":          predictions,
		"count":         len(predictions),
	})
}

func (h *ForecastHandler) GetRecommendations(c *gin.Context) {
	marketID := c.Param("id")
	ctx := c.Request.Context()

	generatedAt, err := h.recommendationRepo.GetGeneratedAt(ctx, marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendations"})
		return
	}

	if severityStr := c.Query("severity"); severityStr != "" {
		severity := models.Severity(severityStr)
		switch severity {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
			return
		}

		recommendations, err := h.recommendationRepo.GetBySeverity(ctx, marketID, severity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"market_id":    marketID,
			"generated_at": generatedAt,
			"severity":     severity,
			"data":         recommendations,
			"count":        len(recommendations),
		})
		return
	}

	limit := h.parseLimit(c, 50)
	recommendations, err := h.recommendationRepo.GetLatest(ctx, marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id":    marketID,
		"generated_at": generatedAt,
		"data":         recommendations,
		"count":        len(recommendations),
	})
}

func (h *ForecastHandler) GetEvents(c *gin.Context) {
	marketID := c.Param("id")
	limit := h.parseLimit(c, 50)

	events, err := h.eventsRepo.GetRecent(c.Request.Context(), marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_id": marketID,
		"data":      events,
		"count":     len(events),
	})
}

func (h *ForecastHandler) GetRecentEvents(c *gin.Context) {
	limit := h.parseLimit(c, 20)

	events, err := h.eventsRepo.GetRecent(c.Request.Context(), "", limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recent events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  events,
		"count": len(events),
	})
}

func (h *ForecastHandler) parseTimeRange(c *gin.Context) (time.Time, time.Time) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if fromStr := c.Query("from"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			from = parsed
		}
	}

	if toStr := c.Query("to"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			to = parsed
		}
	}

	// Relative ranges like "6h", "24h", "7d"
	if rangeStr := c.Query("range"); rangeStr != "" {
		duration := h.parseDuration(rangeStr)
		from = to.Add(-duration)
	}

	return from, to
}

func (h *ForecastHandler) parseLimit(c *gin.Context, defaultLimit int) int {
	maxLimit := h.getMaxLimit()
	limit := defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	return limit
}

func (h *ForecastHandler) parseDuration(s string) time.Duration {
	if len(s) < 2 {
		return 24 * time.Hour
	}

	unit := s[len(s)-1]
	valueStr := s[:len(s)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 24 * time.Hour
	}

	switch unit {
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
