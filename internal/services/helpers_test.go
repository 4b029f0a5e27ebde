package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Wikid82/logtrackr/internal/models"
)

// setupTestDB opens an in-memory SQLite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.LogRecord{}, &models.UploadAudit{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, ts time.Time, ip string, sev models.Severity, threat, msg string) models.LogRecord {
	t.Helper()
	rec := models.LogRecord{
		Timestamp:  ts,
		SourceIP:   ip,
		Severity:   sev,
		ThreatType: threat,
		Message:    msg,
		UploadedBy: 1,
	}
	require.NoError(t, db.Create(&rec).Error)
	return rec
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
