package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tutorlane/marketpulse/internal/anomaly"
	"github.com/tutorlane/marketpulse/pkg/models"
)

type AnomalyHandler struct {
	detector *anomaly.Detector
}

func NewAnomalyHandler(detector *anomaly.Detector) *AnomalyHandler {
	return &AnomalyHandler{detector: detector}
}

type DetectRequest struct {
	Method    string             `json:"method" binding:"required"`
	Reference []float64          `json:"reference"`
	Series    []models.TimePoint `json:"series"`
	Current   float64            `json:"current"`
	Threshold float64            `json:"threshold"`
	Window    int                `json:"window"`
}

// Detect runs one detection method over caller-supplied data. Useful for
// backtesting thresholds against exported history.
func (h *AnomalyHandler) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.detector.Detect(anomaly.Request{
		Method:    anomaly.Method(req.Method),
		Reference: req.Reference,
		Series:    req.Series,
		Current:   req.Current,
		Threshold: req.Threshold,
		Window:    req.Window,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
