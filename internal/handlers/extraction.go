package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/services"
)

type ExtractionHandler struct {
	log        *logger.Logger
	extraction services.ExtractionService
}

func NewExtractionHandler(log *logger.Logger, esvc services.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{
		log:        log.With("handler", "ExtractionHandler"),
		extraction: esvc,
	}
}

type extractBulkRequest struct {
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
}

// POST /api/extract/bulk
// Scan every local document and ingest the image references found in it.
func (h *ExtractionHandler) ExtractBulk(c *gin.Context) {
	var req extractBulkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
			return
		}
	}

	stats, err := h.extraction.ExtractCollection(c.Request.Context(), services.ExtractRunParams{
		Collection: req.Collection,
		Limit:      req.Limit,
	})
	if err != nil {
		h.log.Error("Bulk extraction failed", "error", err)
		// stats carries whatever the run aggregated before the fatal error
		c.JSON(http.StatusInternalServerError, gin.H{"stats": stats, "error": err.Error()})
		return
	}

	RespondOK(c, gin.H{"stats": stats})
}

type extractDocumentRequest struct {
	Collection string `json:"collection"`
	TailorID   string `json:"tailor_id" binding:"required"`
}

// POST /api/extract/document
// Run the pipeline for a single local document.
func (h *ExtractionHandler) ExtractDocument(c *gin.Context) {
	var req extractDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	tailorID, err := uuid.Parse(req.TailorID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_tailor_id", err)
		return
	}

	stats, err := h.extraction.ExtractCollection(c.Request.Context(), services.ExtractRunParams{
		Collection: req.Collection,
		TailorID:   &tailorID,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "extraction_failed", err)
		return
	}

	RespondOK(c, gin.H{"stats": stats})
}

// POST /api/extract/upstream
// Run the pipeline straight off upstream rows, without syncing them locally.
func (h *ExtractionHandler) ExtractUpstream(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)

	stats, err := h.extraction.ExtractUpstream(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Upstream extraction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"stats": stats, "error": err.Error()})
		return
	}

	RespondOK(c, gin.H{"stats": stats})
}

// GET /api/extract/inspect
// Dry-run report of discovered references, nothing is downloaded or written.
func (h *ExtractionHandler) Inspect(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 5)

	report, err := h.extraction.Inspect(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "inspect_failed", err)
		return
	}

	RespondOK(c, gin.H{"report": report})
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
