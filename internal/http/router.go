package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/pulsecheck/backend/internal/cache"
	"github.com/pulsecheck/backend/internal/config"
	"github.com/pulsecheck/backend/internal/db"
	"github.com/pulsecheck/backend/internal/http/handlers"
	"github.com/pulsecheck/backend/internal/http/middleware"

	_ "github.com/pulsecheck/backend/docs"
)

func Router(cfg config.Config, store *db.Store, analyzer handlers.Analyzer, c cache.Cache, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Analyzer:  analyzer,
		Cache:     c,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/customers", h.CustomersList)
		api.GET("/customers/:id", h.CustomerDetails)
		api.GET("/customers/:id/health-scores", h.HealthScoresList)
		api.GET("/customers/:id/analysis/latest", h.LatestAnalysis)
		api.GET("/customers/:id/action-items", h.ActionItemsList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/customers", h.CreateCustomer)
		admin.POST("/customers/:id/messages", h.IngestMessages)
		admin.POST("/customers/:id/analyze", h.AnalyzeCustomer)
		admin.POST("/analyze", h.AnalyzeAll)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
