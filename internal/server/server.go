package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/api/routes"
	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine   *gin.Engine
	cfg      config.Config
	notifier *services.NotificationService
}

// New wires up the HTTP router and registers versioned routes.
func New(db *gorm.DB, cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" && cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(cfg.Debug),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{IsDevelopment: !cfg.IsProduction()}),
	)
	// Upload bodies are limited in the handler; keep multipart parts in memory
	// up to that size.
	router.MaxMultipartMemory = cfg.Upload.MaxBytes + 1<<20

	notifier := services.NewNotificationService(cfg.Notify)
	if err := routes.Register(router, db, cfg, notifier); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Server{Engine: router, cfg: cfg, notifier: notifier}, nil
}

// Handler returns the engine behind transparent gzip compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.Engine)
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// pending notifications.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log().WithField("addr", srv.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Log().Info("shutting down http server")
		err := srv.Shutdown(shutdownCtx)
		s.notifier.Wait()
		if err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
