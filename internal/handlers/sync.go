package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/services"
)

type SyncHandler struct {
	log  *logger.Logger
	sync services.SyncService
}

func NewSyncHandler(log *logger.Logger, ssvc services.SyncService) *SyncHandler {
	return &SyncHandler{
		log:  log.With("handler", "SyncHandler"),
		sync: ssvc,
	}
}

// POST /api/sync/upstream
// Pull tailor rows from the upstream database into the local store.
func (h *SyncHandler) SyncUpstream(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)

	stats, err := h.sync.SyncUpstream(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Upstream sync failed", "error", err)
		RespondError(c, http.StatusBadGateway, "upstream_sync_failed", err)
		return
	}

	RespondOK(c, gin.H{"stats": stats})
}
