package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Wikid82/logtrackr/internal/models"
)

// ExportFormat selects how statistics are exported.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"

	exportTimeLayout = "2006-01-02 15:04:05.999999999"
)

// ExportColumns is the header of a CSV export. The export re-imports through
// the upload pipeline unchanged.
var ExportColumns = []string{"timestamp", "source_ip", "severity", "message", "threat_type", "location"}

// ParseExportFormat defaults to JSON for anything other than "csv".
func ParseExportFormat(raw string) ExportFormat {
	if ExportFormat(raw) == ExportCSV {
		return ExportCSV
	}
	return ExportJSON
}

// ExportService renders windowed data for download.
type ExportService struct {
	stats *StatsService
	now   func() time.Time
}

// NewExportService returns an ExportService reading through stats.
func NewExportService(stats *StatsService) *ExportService {
	return &ExportService{stats: stats, now: stats.now}
}

// Filename embeds the current UTC date, e.g. logtrackr_statistics_20240115.csv.
func (s *ExportService) Filename(format ExportFormat) string {
	return fmt.Sprintf("logtrackr_statistics_%s.%s", s.now().UTC().Format("20060102"), format)
}

// WriteCSV writes the window's records to w and returns the number of data
// rows. An empty window still yields the header row.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, days int) (int, error) {
	records, err := s.stats.WindowRecords(ctx, days)
	if err != nil {
		return 0, err
	}
	if err := writeRecordsCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// JSON returns the statistics payload encoded for download.
func (s *ExportService) JSON(ctx context.Context, days int) ([]byte, error) {
	st, err := s.stats.Statistics(ctx, days)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(st, "", "  ")
}

func writeRecordsCSV(w io.Writer, records []models.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(exportTimeLayout),
			r.SourceIP,
			string(r.Severity),
			r.Message,
			r.ThreatType,
			r.Location,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
