package app

import (
	"github.com/darzee/imagehub-backend/internal/handlers"
	"github.com/darzee/imagehub-backend/internal/logger"
)

type Handlers struct {
	Extraction *handlers.ExtractionHandler
	Image      *handlers.ImageHandler
	Sync       *handlers.SyncHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Extraction: handlers.NewExtractionHandler(log, serviceset.Extraction),
		Image:      handlers.NewImageHandler(log, reposet.Image),
		Sync:       handlers.NewSyncHandler(log, serviceset.Sync),
	}
}
