package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/service"
)

// ExportHandler serves export snapshots
type ExportHandler struct {
	exportService service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Export handles GET /api/v1/export?start=&end=
func (h *ExportHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	snapshot, err := h.exportService.Export(c.Request.Context(), userID, start, end)
	if err != nil {
		writeError(c, err, "export", "")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
