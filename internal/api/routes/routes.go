package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/api/handlers"
	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/database"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/metrics"
	"github.com/Wikid82/logtrackr/internal/services"
)

// Register migrates the schema and wires every API route onto router.
// notifier may be nil.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, notifier services.UploadNotifier) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	api.GET("/health", handlers.NewHealthHandler(db).Check)

	authService := services.NewAuthService(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction(), int(cfg.TokenTTL.Seconds()))
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	authHandler.RegisterRoutes(protected)

	logService := services.NewLogService(db)
	handlers.NewLogHandler(logService).RegisterRoutes(protected)

	uploadService := services.NewUploadService(db, logService, cfg.Upload.MaxBytes, notifier)
	uploadLimiter := middleware.NewRateLimiter(cfg.Upload.RatePerMinute)
	handlers.NewUploadHandler(uploadService, authService, cfg.Upload.ErrorLimit).
		RegisterRoutes(protected, uploadLimiter.Middleware())

	statsService := services.NewStatsService(db)
	handlers.NewStatisticsHandler(statsService, services.NewExportService(statsService)).RegisterRoutes(protected)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	logger.Log().WithField("routes", len(router.Routes())).Debug("api routes registered")
	return nil
}
