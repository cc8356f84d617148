package app

import (
	"github.com/gin-gonic/gin"

	"github.com/darzee/imagehub-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:       "imagehub-backend",
		AllowedOrigins:    cfg.AllowedOrigins,
		ExtractionHandler: handlerset.Extraction,
		ImageHandler:      handlerset.Image,
		SyncHandler:       handlerset.Sync,
	})
}
