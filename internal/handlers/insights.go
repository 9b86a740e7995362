package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/service"
)

// Refresher regenerates insights on demand
type Refresher interface {
	Refresh(ctx context.Context, userID string) (*models.InsightsResponse, error)
}

// InsightsHandler handles insights-related HTTP requests
type InsightsHandler struct {
	intelligenceService service.IntelligenceService
	refresher           Refresher
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(intelligenceService service.IntelligenceService, refresher Refresher) *InsightsHandler {
	return &InsightsHandler{
		intelligenceService: intelligenceService,
		refresher:           refresher,
	}
}

// GetInsights returns the stored, unexpired insights for the authenticated user
// GET /api/v1/insights
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	insights, err := h.intelligenceService.GetInsights(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "insights", "")
		return
	}

	c.JSON(http.StatusOK, insights)
}

// RefreshInsights forces recomputation of insights
// POST /api/v1/insights/refresh
func (h *InsightsHandler) RefreshInsights(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := logger.WithTrigger(c.Request.Context(), logger.TriggerRequest)
	insights, err := h.refresher.Refresh(ctx, userID)
	if err != nil {
		writeError(c, err, "insights", "")
		return
	}

	c.JSON(http.StatusOK, insights)
}
