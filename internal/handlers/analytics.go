package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/service"
)

// AnalyticsHandler exposes the trend, pattern and correlation analyzers
type AnalyticsHandler struct {
	intelligenceService service.IntelligenceService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(intelligenceService service.IntelligenceService) *AnalyticsHandler {
	return &AnalyticsHandler{
		intelligenceService: intelligenceService,
	}
}

// GetTrends handles GET /api/v1/analytics/trends
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	trends, err := h.intelligenceService.ComputeTrends(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "trends", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetPatterns handles GET /api/v1/analytics/patterns
func (h *AnalyticsHandler) GetPatterns(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	patterns, err := h.intelligenceService.DetectPatterns(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "patterns", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// GetCorrelations handles GET /api/v1/analytics/correlations
func (h *AnalyticsHandler) GetCorrelations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	correlations, err := h.intelligenceService.ComputeCorrelations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "correlations", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"correlations": correlations})
}
