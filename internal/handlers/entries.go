package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/apierror"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/service"
)

// EntryHandler handles mood entry ingestion and queries
type EntryHandler struct {
	entryService service.EntryService
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
	}
}

// CreateEntry handles POST /api/v1/entries
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
		return
	}

	entry, err := h.entryService.AddEntry(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err, "entry", req.ID)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListEntries handles GET /api/v1/entries?start=&end=
func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	entries, err := h.entryService.QueryEntries(c.Request.Context(), userID, start, end)
	if err != nil {
		writeError(c, err, "entries", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetEntry handles GET /api/v1/entries/:id
func (h *EntryHandler) GetEntry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entryID := c.Param("id")
	entry, err := h.entryService.GetEntry(c.Request.Context(), userID, entryID)
	if err != nil {
		writeError(c, err, "entry", entryID)
		return
	}

	c.JSON(http.StatusOK, entry)
}
