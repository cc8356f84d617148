package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/repos"
)

type ImageHandler struct {
	log       *logger.Logger
	imageRepo repos.ImageRepo
}

func NewImageHandler(log *logger.Logger, imageRepo repos.ImageRepo) *ImageHandler {
	return &ImageHandler{
		log:       log.With("handler", "ImageHandler"),
		imageRepo: imageRepo,
	}
}

// GET /api/images
// Page through managed images, newest first.
func (h *ImageHandler) ListImages(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	images, err := h.imageRepo.GetPage(c.Request.Context(), nil, limit, offset)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "image_list_failed", err)
		return
	}

	RespondOK(c, gin.H{"images": images, "limit": limit, "offset": offset})
}

// GET /api/images/:id
func (h *ImageHandler) GetImageByID(c *gin.Context) {
	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_image_id", err)
		return
	}

	image, err := h.imageRepo.GetByID(c.Request.Context(), nil, imageID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "image_not_found", err)
		return
	}

	RespondOK(c, gin.H{"image": image})
}

// GET /api/images/duplicates
// Source URLs that produced more than one managed image. Duplicates are
// reported, never reconciled automatically.
func (h *ImageHandler) ListDuplicates(c *gin.Context) {
	duplicates, err := h.imageRepo.FindDuplicateSourceURLs(c.Request.Context(), nil)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "duplicate_report_failed", err)
		return
	}

	RespondOK(c, gin.H{"duplicates": duplicates, "count": len(duplicates)})
}
