package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/version"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports build metadata and whether the database answers a ping.
func (h *HealthHandler) Check(c *gin.Context) {
	status, dbState, code := "ok", "ok", http.StatusOK
	if err := h.ping(c.Request.Context()); err != nil {
		status, dbState, code = "degraded", "unreachable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"database":   dbState,
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
	})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
