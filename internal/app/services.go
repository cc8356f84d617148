package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/extractor"
	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/services"
	"github.com/darzee/imagehub-backend/internal/upstream"
)

type Services struct {
	Bucket     services.BucketService
	Extraction services.ExtractionService
	Sync       services.SyncService
	Upstream   upstream.Client
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	bucketService, err := services.NewBucketService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	rules := extractor.DefaultRules()
	if cfg.ExtractorRulesPath != "" {
		loaded, err := extractor.LoadRules(cfg.ExtractorRulesPath)
		if err != nil {
			log.Warn("Failed to load extractor rules, using defaults", "path", cfg.ExtractorRulesPath, "error", err)
		} else {
			rules = loaded
		}
	}
	scanner := extractor.NewScanner(rules)
	downloader := extractor.NewDownloader(log, extractor.DownloaderConfig{
		UserAgent:       cfg.DownloadUserAgent,
		Timeout:         cfg.DownloadTimeout,
		RateLimit:       cfg.DownloadRateLimit,
		MaxBytes:        cfg.DownloadMaxBytes,
		ImageExtensions: rules.ImageExtensions,
	})

	// The upstream connection is optional: local extraction still works
	// without it, only sync and upstream extraction are unavailable.
	upstreamClient, err := upstream.NewClient(context.Background(), log)
	if err != nil {
		log.Warn("Upstream client unavailable", "error", err)
		upstreamClient = nil
	}

	extractionService := services.NewExtractionService(db, log, reposet.Tailor, reposet.Image, bucketService, scanner, downloader, upstreamClient)
	syncService := services.NewSyncService(db, log, reposet.Tailor, upstreamClient)

	return Services{
		Bucket:     bucketService,
		Extraction: extractionService,
		Sync:       syncService,
		Upstream:   upstreamClient,
	}, nil
}
