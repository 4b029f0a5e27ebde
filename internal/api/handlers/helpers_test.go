package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/api/handlers"
	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/services"
)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *services.AuthService
	user   *models.User
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := handlers.OpenTestDB(t)
	auth := services.NewAuthService(db, config.Config{JWTSecret: "handler-test", TokenTTL: time.Hour})
	user, err := auth.Register("analyst@example.com", "password123", "Analyst")
	require.NoError(t, err)
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/health", handlers.NewHealthHandler(db).Check)

	authHandler := handlers.NewAuthHandler(auth, false, 3600)
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(auth))
	authHandler.RegisterRoutes(protected)

	logs := services.NewLogService(db)
	handlers.NewLogHandler(logs).RegisterRoutes(protected)
	uploads := services.NewUploadService(db, logs, 64<<10, nil)
	handlers.NewUploadHandler(uploads, auth, 10).RegisterRoutes(protected, nil)
	stats := services.NewStatsService(db)
	handlers.NewStatisticsHandler(stats, services.NewExportService(stats)).RegisterRoutes(protected)

	return &testEnv{t: t, db: db, router: r, auth: auth, user: user, token: token}
}

func (e *testEnv) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path string, payload any) *httptest.ResponseRecorder {
	e.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(e.t, err)
	return e.do(method, path, bytes.NewReader(raw), "application/json")
}

func (e *testEnv) upload(filename, content string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())
	return e.do(http.MethodPost, "/api/v1/upload", &buf, mw.FormDataContentType())
}

func (e *testEnv) seed(ts time.Time, ip string, sev models.Severity, msg string) models.LogRecord {
	e.t.Helper()
	rec := models.LogRecord{Timestamp: ts, SourceIP: ip, Severity: sev, Message: msg, UploadedBy: e.user.ID}
	require.NoError(e.t, e.db.Create(&rec).Error)
	return rec
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
