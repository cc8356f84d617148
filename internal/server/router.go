package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/darzee/imagehub-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName       string
	AllowedOrigins    []string
	ExtractionHandler *handlers.ExtractionHandler
	ImageHandler      *handlers.ImageHandler
	SyncHandler       *handlers.SyncHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "imagehub-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Extraction pipeline
		api.POST("/extract/bulk", cfg.ExtractionHandler.ExtractBulk)
		api.POST("/extract/document", cfg.ExtractionHandler.ExtractDocument)
		api.POST("/extract/upstream", cfg.ExtractionHandler.ExtractUpstream)
		api.GET("/extract/inspect", cfg.ExtractionHandler.Inspect)

		// Upstream sync
		api.POST("/sync/upstream", cfg.SyncHandler.SyncUpstream)

		// Managed images
		api.GET("/images", cfg.ImageHandler.ListImages)
		api.GET("/images/duplicates", cfg.ImageHandler.ListDuplicates)
		api.GET("/images/:id", cfg.ImageHandler.GetImageByID)
	}

	return router
}
