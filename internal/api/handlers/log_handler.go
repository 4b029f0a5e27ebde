package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/metrics"
	"github.com/Wikid82/logtrackr/internal/services"
)

type LogHandler struct {
	service *services.LogService
}

func NewLogHandler(service *services.LogService) *LogHandler {
	RegisterValidators()
	return &LogHandler{service: service}
}

// List returns one page of records matching the query filters.
func (h *LogHandler) List(c *gin.Context) {
	filter := services.ParseLogFilter(c.Query)
	page := services.ParsePage(c.Query)

	records, total, err := h.service.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     total,
		"page":      page.Number,
		"page_size": page.Size,
		"results":   records,
	})
}

func (h *LogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	rec, err := h.service.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type CreateLogRequest struct {
	Timestamp  string `json:"timestamp" binding:"required"`
	SourceIP   string `json:"source_ip" binding:"required,ip"`
	Severity   string `json:"severity" binding:"required,severity"`
	Message    string `json:"message" binding:"required,max=10000"`
	ThreatType string `json:"threat_type" binding:"max=100"`
	Location   string `json:"location" binding:"max=255"`
	UserAgent  string `json:"user_agent" binding:"max=512"`
}

// Create stores a single record submitted as JSON.
func (h *LogHandler) Create(c *gin.Context) {
	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.service.Create(c.Request.Context(), ingest.RecordInput{
		ingest.ColTimestamp:  req.Timestamp,
		ingest.ColSourceIP:   req.SourceIP,
		ingest.ColSeverity:   req.Severity,
		ingest.ColMessage:    req.Message,
		ingest.ColThreatType: req.ThreatType,
		ingest.ColLocation:   req.Location,
		ingest.ColUserAgent:  req.UserAgent,
	}, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.IncRecordCreated()
	c.JSON(http.StatusCreated, rec)
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

func (h *LogHandler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.AddRecordsDeleted(deleted)
	middleware.GetRequestLogger(c).WithFields(logrus.Fields{
		"requested": len(req.IDs),
		"deleted":   deleted,
	}).Info("bulk deleted log records")
	c.JSON(http.StatusOK, gin.H{"message": "Deleted " + strconv.FormatInt(deleted, 10) + " records", "deleted_count": deleted})
}

func (h *LogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/logs", h.List)
	rg.POST("/logs", h.Create)
	rg.DELETE("/logs/bulk", h.BulkDelete)
	rg.GET("/logs/:id", h.Get)
}
