package handlers_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/services"
)

func seedWindow(env *testEnv) {
	now := time.Now().UTC()
	env.seed(now.Add(-time.Hour), "10.0.0.1", models.SeverityCritical, "a")
	env.seed(now.Add(-2*time.Hour), "10.0.0.1", models.SeverityCritical, "b")
	env.seed(now.Add(-3*time.Hour), "10.0.0.2", models.SeverityHigh, "c")
	env.seed(now.AddDate(0, 0, -3), "10.0.0.3", models.SeverityLow, "d")
	env.seed(now.AddDate(0, 0, -60), "10.0.0.4", models.SeverityLow, "old")
}

func TestStatisticsHandler_Statistics(t *testing.T) {
	env := newTestEnv(t)
	seedWindow(env)

	w := env.do(http.MethodGet, "/api/v1/statistics?days=7", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)

	summary := resp["summary"].(map[string]any)
	assert.Equal(t, float64(4), summary["total_logs"])
	assert.Equal(t, float64(2), summary["critical_logs"])
	assert.Equal(t, float64(3), summary["unique_ips"])

	severity := resp["charts"].(map[string]any)["severity"].(map[string]any)
	assert.Equal(t, float64(0), severity["medium"])
	assert.Equal(t, float64(0), severity["info"])
	assert.Len(t, resp["charts"].(map[string]any)["hourly_activity"], 24)
	assert.Len(t, resp["recent_activity"], 7)

	resp = decode(t, env.do(http.MethodGet, "/api/v1/statistics?days=bogus", nil, ""))
	assert.Equal(t, float64(services.DefaultWindowDays), resp["date_range"].(map[string]any)["days"])
}

func TestStatisticsHandler_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	seedWindow(env)

	w := env.do(http.MethodGet, "/api/v1/statistics/dashboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(3), resp["last_24h"].(map[string]any)["total"])
	assert.Equal(t, float64(4), resp["last_7d"].(map[string]any)["total"])
	assert.Equal(t, float64(5), resp["all_time"].(map[string]any)["total"])
}

func TestStatisticsHandler_ExportCSVMatchesSummary(t *testing.T) {
	env := newTestEnv(t)
	seedWindow(env)

	w := env.do(http.MethodGet, "/api/v1/statistics/export?format=csv&days=7", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Regexp(t, `attachment; filename="logtrackr_statistics_\d{8}\.csv"`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, services.ExportColumns, rows[0])

	summary := decode(t, env.do(http.MethodGet, "/api/v1/statistics?days=7", nil, ""))["summary"].(map[string]any)
	assert.Equal(t, summary["total_logs"], float64(len(rows)-1))
}

func TestStatisticsHandler_ExportEmptyCSV(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/v1/statistics/export?format=csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, strings.Join(services.ExportColumns, ",")+"\n", w.Body.String())
}

func TestStatisticsHandler_ExportJSON(t *testing.T) {
	env := newTestEnv(t)
	seedWindow(env)

	w := env.do(http.MethodGet, "/api/v1/statistics/export?days=7", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json")
	assert.Equal(t, float64(4), decode(t, w)["summary"].(map[string]any)["total_logs"])
}
