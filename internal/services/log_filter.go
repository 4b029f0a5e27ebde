package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/Wikid82/logtrackr/internal/models"
)

const filterDateLayout = "2006-01-02"

// ParseLogFilter builds a LogFilter from query parameters. Malformed dates
// are dropped as if the parameter were absent.
func ParseLogFilter(query func(key string) string) LogFilter {
	var f LogFilter

	if s := strings.TrimSpace(query("severity")); s != "" {
		if sev, err := models.ParseSeverity(s); err == nil {
			f.Severity = sev
		} else {
			// unknown severities still filter, matching nothing
			f.Severity = models.Severity(strings.ToLower(s))
		}
	}

	f.SourceIP = strings.TrimSpace(query("source_ip"))
	if f.SourceIP == "" {
		f.SourceIP = strings.TrimSpace(query("ip_address"))
	}

	f.Start = parseFilterDate(query("start_date"))
	f.End = parseFilterDate(query("end_date"))
	f.Search = strings.TrimSpace(query("search"))
	return f
}

// ParsePage reads page and page_size, falling back to defaults.
func ParsePage(query func(key string) string) Page {
	var p Page
	if n, err := strconv.Atoi(query("page")); err == nil {
		p.Number = n
	}
	if n, err := strconv.Atoi(query("page_size")); err == nil {
		p.Size = n
	}
	return p.Normalize()
}

func parseFilterDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(filterDateLayout, raw, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
