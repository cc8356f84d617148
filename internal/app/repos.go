package app

import (
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/repos"
)

type Repos struct {
	Tailor repos.TailorRepo
	Image  repos.ImageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tailor: repos.NewTailorRepo(db, log),
		Image:  repos.NewImageRepo(db, log),
	}
}
