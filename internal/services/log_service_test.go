package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/models"
)

func TestLogService_CreateBatchAndGet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	ctx := context.Background()

	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	batch := []models.LogRecord{
		{Timestamp: ts, SourceIP: "10.0.0.1", Severity: models.SeverityHigh, Message: "a", UploadedBy: 1},
		{Timestamp: ts, SourceIP: "10.0.0.2", Severity: models.SeverityLow, Message: "b", UploadedBy: 1},
	}
	require.NoError(t, svc.CreateBatch(ctx, batch))
	require.NoError(t, svc.CreateBatch(ctx, nil))

	var count int64
	db.Model(&models.LogRecord{}).Count(&count)
	assert.Equal(t, int64(2), count)

	var first models.LogRecord
	require.NoError(t, db.Order("id").First(&first).Error)
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", got.SourceIP)
	assert.True(t, ts.Equal(got.Timestamp))

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestLogService_CreateBatchIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)

	ts := time.Now().UTC()
	dup := "11111111-1111-1111-1111-111111111111"
	batch := []models.LogRecord{
		{UUID: dup, Timestamp: ts, SourceIP: "10.0.0.1", Severity: models.SeverityHigh, Message: "a", UploadedBy: 1},
		{UUID: dup, Timestamp: ts, SourceIP: "10.0.0.2", Severity: models.SeverityLow, Message: "b", UploadedBy: 1},
	}
	assert.Error(t, svc.CreateBatch(context.Background(), batch))

	var count int64
	db.Model(&models.LogRecord{}).Count(&count)
	assert.Zero(t, count, "a failed batch must not leave partial rows")
}

func TestLogService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)

	rec, err := svc.Create(context.Background(), ingest.RecordInput{
		"timestamp": "15.01.2024 10:30",
		"source_ip": "::ffff:10.0.0.1",
		"severity":  "HIGH",
		"message":   "manual entry",
	}, 5)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, models.SeverityHigh, rec.Severity)
	assert.Equal(t, uint(5), rec.UploadedBy)

	_, err = svc.Create(context.Background(), ingest.RecordInput{
		"timestamp": "2024-01-15 10:30:00",
		"source_ip": "10.0.0.1",
		"severity":  "urgent",
		"message":   "m",
	}, 5)
	assert.ErrorIs(t, err, ingest.ErrInvalidRecord)
	assert.Contains(t, err.Error(), `"urgent"`)
}

func TestLogService_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	ctx := context.Background()

	day := func(d, h int) time.Time { return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC) }
	seedRecord(t, db, day(10, 8), "10.0.0.1", models.SeverityCritical, "sqli", "SQL Injection in login")
	seedRecord(t, db, day(11, 9), "10.0.0.2", models.SeverityHigh, "xss", "reflected script")
	seedRecord(t, db, day(12, 23), "10.0.0.1", models.SeverityLow, "", "port probe")
	seedRecord(t, db, day(13, 1), "192.168.5.5", models.SeverityLow, "bruteforce", "ssh attempts")

	all, total, err := svc.List(ctx, LogFilter{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, all, 4)
	assert.True(t, all[0].Timestamp.After(all[1].Timestamp), "newest first")

	got, total, err := svc.List(ctx, LogFilter{Severity: models.SeverityLow}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)

	got, _, err = svc.List(ctx, LogFilter{SourceIP: "10.0.0.1"}, Page{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	start := day(11, 0)
	end := day(12, 0)
	got, _, err = svc.List(ctx, LogFilter{Start: &start, End: &end}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 2, "end date is inclusive of the whole day")
	assert.Equal(t, "port probe", got[0].Message)

	got, _, err = svc.List(ctx, LogFilter{Search: "sql injection"}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sqli", got[0].ThreatType)

	got, _, err = svc.List(ctx, LogFilter{Search: "BRUTE"}, Page{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, _, err = svc.List(ctx, LogFilter{Search: "192.168"}, Page{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, _, err = svc.List(ctx, LogFilter{Search: "%"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, got, "LIKE wildcards in search are literal")

	seedRecord(t, db, day(14, 2), "10.0.0.9", models.SeverityHigh, "Überwachung", "ÉCHEC de connexion")
	seedRecord(t, db, day(14, 3), "10.0.0.10", models.SeverityMedium, "İzinsiz erişim", "Şüpheli GİRİŞ denemesi")
	for _, q := range []string{"ÉCHEC de connexion", "échec", "Überwachung", "überwachung", "ÜBERWACHUNG"} {
		got, _, err = svc.List(ctx, LogFilter{Search: q}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1, "search %q", q)
		assert.Equal(t, "10.0.0.9", got[0].SourceIP)
	}
	for _, q := range []string{"şüpheli", "ŞÜPHELİ GİRİŞ", "erişim"} {
		got, _, err = svc.List(ctx, LogFilter{Search: q}, Page{})
		require.NoError(t, err)
		require.Len(t, got, 1, "search %q", q)
		assert.Equal(t, "10.0.0.10", got[0].SourceIP)
	}

	got, _, err = svc.List(ctx, LogFilter{Search: "connexion überwachung"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, got, "a term does not span two fields")
}

func TestLogService_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		seedRecord(t, db, base.Add(time.Duration(i)*time.Hour), fmt.Sprintf("10.0.0.%d", i), models.SeverityInfo, "", "m")
	}

	page, total, err := svc.List(context.Background(), LogFilter{}, Page{Number: 2, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, page, 3)
	assert.Equal(t, "10.0.0.3", page[0].SourceIP)

	page, _, err = svc.List(context.Background(), LogFilter{}, Page{Number: 3, Size: 3})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestLogService_BulkDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	ts := time.Now().UTC()
	a := seedRecord(t, db, ts, "10.0.0.1", models.SeverityHigh, "", "a")
	b := seedRecord(t, db, ts, "10.0.0.2", models.SeverityHigh, "", "b")
	c := seedRecord(t, db, ts, "10.0.0.3", models.SeverityHigh, "", "c")

	n, err := svc.BulkDelete(context.Background(), []uint{a.ID, c.ID, 424242})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left []models.LogRecord
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].ID)

	n, err = svc.BulkDelete(context.Background(), []uint{424242})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.BulkDelete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoIDsToDelete)
}

func TestLogService_BulkDeleteManyIDs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	ts := time.Now().UTC()
	first := seedRecord(t, db, ts, "10.0.0.1", models.SeverityHigh, "", "first")
	last := seedRecord(t, db, ts, "10.0.0.2", models.SeverityHigh, "", "last")
	kept := seedRecord(t, db, ts, "10.0.0.3", models.SeverityHigh, "", "kept")

	ids := []uint{first.ID}
	for i := uint(0); i < 40000; i++ {
		ids = append(ids, 1_000_000+i)
	}
	ids = append(ids, last.ID, first.ID)

	n, err := svc.BulkDelete(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left []models.LogRecord
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, kept.ID, left[0].ID)
}

func TestParseLogFilter(t *testing.T) {
	params := map[string]string{
		"severity":   "HIGH",
		"ip_address": "10.0.0.1",
		"start_date": "2024-01-10",
		"end_date":   "not-a-date",
		"search":     "  scan ",
	}
	f := ParseLogFilter(func(k string) string { return params[k] })
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.Equal(t, "10.0.0.1", f.SourceIP)
	require.NotNil(t, f.Start)
	assert.Equal(t, 10, f.Start.Day())
	assert.Nil(t, f.End)
	assert.Equal(t, "scan", f.Search)

	params = map[string]string{"source_ip": "a", "ip_address": "b", "severity": "urgent"}
	f = ParseLogFilter(func(k string) string { return params[k] })
	assert.Equal(t, "a", f.SourceIP)
	assert.Equal(t, models.Severity("urgent"), f.Severity)
}

func TestUnparseableStartDateMatchesOmitted(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	seedRecord(t, db, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), "10.0.0.1", models.SeverityLow, "", "old")
	seedRecord(t, db, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "10.0.0.2", models.SeverityLow, "", "new")

	bad := ParseLogFilter(func(k string) string {
		if k == "start_date" {
			return "2024/13/45"
		}
		return ""
	})
	none := ParseLogFilter(func(string) string { return "" })

	withBad, n1, err := svc.List(context.Background(), bad, Page{})
	require.NoError(t, err)
	withNone, n2, err := svc.List(context.Background(), none, Page{})
	require.NoError(t, err)
	assert.Equal(t, n2, n1)
	assert.Equal(t, withNone, withBad)
}

func TestParsePage(t *testing.T) {
	q := func(m map[string]string) func(string) string { return func(k string) string { return m[k] } }

	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, ParsePage(q(nil)))
	assert.Equal(t, Page{Number: 3, Size: 10}, ParsePage(q(map[string]string{"page": "3", "page_size": "10"})))
	assert.Equal(t, Page{Number: 1, Size: MaxPageSize}, ParsePage(q(map[string]string{"page": "-1", "page_size": "100000"})))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, ParsePage(q(map[string]string{"page": "x", "page_size": "y"})))
	assert.Equal(t, Page{Number: MaxPageNumber, Size: 10}, ParsePage(q(map[string]string{"page": "9223372036854775807", "page_size": "10"})))
}

func TestLogService_ListHugePageIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLogService(db)
	seedRecord(t, db, time.Now().UTC(), "10.0.0.1", models.SeverityLow, "", "only")

	page := Page{Number: math.MaxInt, Size: MaxPageSize}.Normalize()
	assert.Equal(t, MaxPageNumber, page.Number)
	assert.Positive(t, (page.Number-1)*page.Size)

	got, total, err := svc.List(context.Background(), LogFilter{}, Page{Number: math.MaxInt, Size: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, got)
}
