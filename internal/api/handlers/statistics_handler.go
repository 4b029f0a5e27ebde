package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/services"
)

type StatisticsHandler struct {
	stats  *services.StatsService
	export *services.ExportService
}

func NewStatisticsHandler(stats *services.StatsService, export *services.ExportService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, export: export}
}

// windowDays reads ?days=, falling back to the default window.
func windowDays(c *gin.Context) int {
	days, _ := strconv.Atoi(c.Query("days"))
	return services.ClampWindowDays(days)
}

func (h *StatisticsHandler) Statistics(c *gin.Context) {
	st, err := h.stats.Statistics(c.Request.Context(), windowDays(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Export downloads the window as a JSON statistics document or a CSV of the
// raw records.
func (h *StatisticsHandler) Export(c *gin.Context) {
	format := services.ParseExportFormat(c.Query("format"))
	days := windowDays(c)
	ctx := c.Request.Context()

	var (
		body        []byte
		contentType string
		rows        int
	)
	switch format {
	case services.ExportCSV:
		var buf bytes.Buffer
		n, err := h.export.WriteCSV(ctx, &buf, days)
		if err != nil {
			respondError(c, err)
			return
		}
		body, contentType, rows = buf.Bytes(), "text/csv; charset=utf-8", n
	default:
		raw, err := h.export.JSON(ctx, days)
		if err != nil {
			respondError(c, err)
			return
		}
		body, contentType = raw, "application/json; charset=utf-8"
	}

	filename := h.export.Filename(format)
	middleware.GetRequestLogger(c).WithFields(logrus.Fields{
		"format": format,
		"days":   days,
		"rows":   rows,
	}).Info("statistics exported")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, body)
}

func (h *StatisticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/statistics", h.Statistics)
	rg.GET("/statistics/dashboard", h.Dashboard)
	rg.GET("/statistics/export", h.Export)
}
