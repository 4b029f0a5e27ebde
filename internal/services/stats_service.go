package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/models"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 3650
	chartLimit        = 10
	detailLimit       = 20
	recentDays        = 7
	dateLayout        = "2006-01-02"
)

// Summary holds the headline numbers of a statistics window.
type Summary struct {
	TotalLogs    int64 `json:"total_logs"`
	CriticalLogs int64 `json:"critical_logs"`
	UniqueIPs    int64 `json:"unique_ips"`
	ThreatTypes  int64 `json:"threat_types"`
}

// IPCount is one row of a source IP breakdown.
type IPCount struct {
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

// ThreatCount is one row of a threat type breakdown.
type ThreatCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// DayCount is the number of records on one calendar day (UTC).
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Charts feeds the dashboard charts.
type Charts struct {
	Severity       map[models.Severity]int64 `json:"severity"`
	TopIPs         []IPCount                 `json:"top_ips"`
	HourlyActivity [24]int64                 `json:"hourly_activity"`
	ThreatTypes    []ThreatCount             `json:"threat_types"`
}

// Details feeds the tabular breakdowns, which show more rows than the charts.
type Details struct {
	IPStats     []IPCount     `json:"ip_stats"`
	ThreatStats []ThreatCount `json:"threat_stats"`
}

// DateRange echoes the window the statistics cover.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// Statistics is the full aggregate payload for a trailing window.
type Statistics struct {
	Summary        Summary    `json:"summary"`
	Charts         Charts     `json:"charts"`
	Details        Details    `json:"details"`
	RecentActivity []DayCount `json:"recent_activity"`
	DateRange      DateRange  `json:"date_range"`
}

// WindowSummary is the lightweight total/critical/unique-IP triple.
type WindowSummary struct {
	Total     int64 `json:"total"`
	Critical  int64 `json:"critical"`
	UniqueIPs int64 `json:"unique_ips"`
}

// DashboardStats summarizes three fixed windows.
type DashboardStats struct {
	Last24h WindowSummary `json:"last_24h"`
	Last7d  WindowSummary `json:"last_7d"`
	AllTime WindowSummary `json:"all_time"`
}

type groupCount struct {
	Label string
	Total int64
}

// StatsService computes windowed aggregates over stored records.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService returns a StatsService using the provided DB
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// ClampWindowDays returns days, or the default when it is out of range.
func ClampWindowDays(days int) int {
	if days < 1 || days > MaxWindowDays {
		return DefaultWindowDays
	}
	return days
}

// Statistics aggregates every record with timestamp >= now - days.
func (s *StatsService) Statistics(ctx context.Context, days int) (*Statistics, error) {
	days = ClampWindowDays(days)
	now := s.now().UTC()
	start := now.AddDate(0, 0, -days)
	db := s.db.WithContext(ctx)
	window := func() *gorm.DB {
		return db.Model(&models.LogRecord{}).Where("timestamp >= ?", start)
	}

	var out Statistics
	var err error
	if out.Summary, err = summarize(window); err != nil {
		return nil, err
	}

	if out.Charts.Severity, err = severityCounts(window()); err != nil {
		return nil, err
	}

	ips, err := topGroups(window(), "source_ip", detailLimit)
	if err != nil {
		return nil, err
	}
	out.Details.IPStats = toIPCounts(ips)
	out.Charts.TopIPs = out.Details.IPStats[:min(chartLimit, len(out.Details.IPStats))]

	threats, err := topGroups(window().Where("threat_type <> ''"), "threat_type", detailLimit)
	if err != nil {
		return nil, err
	}
	out.Details.ThreatStats = toThreatCounts(threats)
	out.Charts.ThreatTypes = out.Details.ThreatStats[:min(chartLimit, len(out.Details.ThreatStats))]

	hourlyFrom := later(start, now.Add(-24*time.Hour))
	if out.Charts.HourlyActivity, err = s.hourly(window().Where("timestamp >= ?", hourlyFrom)); err != nil {
		return nil, err
	}

	if out.RecentActivity, err = s.recentDays(window(), now); err != nil {
		return nil, err
	}

	out.DateRange = DateRange{
		Start: start.Format(dateLayout),
		End:   now.Format(dateLayout),
		Days:  days,
	}
	return &out, nil
}

// Dashboard computes the summary triple for the last 24 hours, the last 7
// days and all time.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	db := s.db.WithContext(ctx)
	since := func(from *time.Time) func() *gorm.DB {
		return func() *gorm.DB {
			q := db.Model(&models.LogRecord{})
			if from != nil {
				q = q.Where("timestamp >= ?", *from)
			}
			return q
		}
	}

	day := now.Add(-24 * time.Hour)
	week := now.AddDate(0, 0, -7)

	var out DashboardStats
	var err error
	if out.Last24h, err = windowSummary(since(&day)); err != nil {
		return nil, err
	}
	if out.Last7d, err = windowSummary(since(&week)); err != nil {
		return nil, err
	}
	if out.AllTime, err = windowSummary(since(nil)); err != nil {
		return nil, err
	}
	return &out, nil
}

// WindowRecords returns every record in the trailing window, newest first.
func (s *StatsService) WindowRecords(ctx context.Context, days int) ([]models.LogRecord, error) {
	start := s.now().UTC().AddDate(0, 0, -ClampWindowDays(days))
	var records []models.LogRecord
	err := s.db.WithContext(ctx).
		Where("timestamp >= ?", start).
		Order("timestamp DESC").Order("id DESC").
		Find(&records).Error
	return records, err
}

func windowSummary(q func() *gorm.DB) (WindowSummary, error) {
	var w WindowSummary
	if err := q().Count(&w.Total).Error; err != nil {
		return w, err
	}
	if err := q().Where("severity = ?", models.SeverityCritical).Count(&w.Critical).Error; err != nil {
		return w, err
	}
	if err := q().Distinct("source_ip").Count(&w.UniqueIPs).Error; err != nil {
		return w, err
	}
	return w, nil
}

func summarize(q func() *gorm.DB) (Summary, error) {
	w, err := windowSummary(q)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{TotalLogs: w.Total, CriticalLogs: w.Critical, UniqueIPs: w.UniqueIPs}
	err = q().Where("threat_type <> ''").Distinct("threat_type").Count(&out.ThreatTypes).Error
	return out, err
}

func severityCounts(q *gorm.DB) (map[models.Severity]int64, error) {
	var rows []groupCount
	if err := q.Select("severity AS label, COUNT(*) AS total").Group("severity").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := models.ZeroSeverityCounts()
	for _, r := range rows {
		counts[models.Severity(r.Label)] = r.Total
	}
	return counts, nil
}

// topGroups counts records per column value, highest first; ties are
// ordered by value so results are stable.
func topGroups(q *gorm.DB, column string, limit int) ([]groupCount, error) {
	var rows []groupCount
	err := q.Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order("total DESC").Order("label ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *StatsService) hourly(q *gorm.DB) ([24]int64, error) {
	var buckets [24]int64
	var stamps []time.Time
	if err := q.Pluck("timestamp", &stamps).Error; err != nil {
		return buckets, err
	}
	for _, ts := range stamps {
		buckets[ts.UTC().Hour()]++
	}
	return buckets, nil
}

// recentDays buckets the window's records by calendar day for today and the
// six days before it, newest first.
func (s *StatsService) recentDays(q *gorm.DB, now time.Time) ([]DayCount, error) {
	today := startOfDay(now)
	oldest := today.AddDate(0, 0, -(recentDays - 1))

	var stamps []time.Time
	if err := q.Where("timestamp >= ?", oldest).Pluck("timestamp", &stamps).Error; err != nil {
		return nil, err
	}

	perDay := make(map[string]int64, recentDays)
	for _, ts := range stamps {
		perDay[ts.UTC().Format(dateLayout)]++
	}

	out := make([]DayCount, 0, recentDays)
	for i := 0; i < recentDays; i++ {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		out = append(out, DayCount{Date: date, Count: perDay[date]})
	}
	return out, nil
}

func toIPCounts(rows []groupCount) []IPCount {
	out := make([]IPCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, IPCount{IP: r.Label, Count: r.Total})
	}
	return out
}

func toThreatCounts(rows []groupCount) []ThreatCount {
	out := make([]ThreatCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, ThreatCount{Type: r.Label, Count: r.Total})
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
