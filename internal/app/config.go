package app

import (
	"strings"
	"time"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/utils"
)

type Config struct {
	Port               string
	Environment        string
	AllowedOrigins     []string
	ExtractorRulesPath string
	DownloadUserAgent  string
	DownloadTimeout    time.Duration
	DownloadRateLimit  float64
	DownloadMaxBytes   int64
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)
	originsRaw := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)
	var origins []string
	for _, o := range strings.Split(originsRaw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	rulesPath := utils.GetEnv("EXTRACTOR_RULES_PATH", "", log)
	userAgent := utils.GetEnv("DOWNLOAD_USER_AGENT", "imagehub-extractor/1.0", log)
	timeoutSeconds := utils.GetEnvAsInt("DOWNLOAD_TIMEOUT_SECONDS", 30, log)
	rateLimit := utils.GetEnvAsInt("DOWNLOAD_RATE_LIMIT", 0, log)
	maxBytes := utils.GetEnvAsInt("DOWNLOAD_MAX_BYTES", 0, log)
	return Config{
		Port:               port,
		Environment:        environment,
		AllowedOrigins:     origins,
		ExtractorRulesPath: rulesPath,
		DownloadUserAgent:  userAgent,
		DownloadTimeout:    time.Duration(timeoutSeconds) * time.Second,
		DownloadRateLimit:  float64(rateLimit),
		DownloadMaxBytes:   int64(maxBytes),
	}
}
