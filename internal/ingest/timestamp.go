package ingest

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidTimestamp is returned when no accepted layout matches.
var ErrInvalidTimestamp = errors.New("invalid timestamp format")

// timeParser returns the instant encoded in s, or false when s is not in its format.
type timeParser func(s string) (time.Time, bool)

// timestampParsers are tried in order; the first success wins. Values without
// a zone are read as UTC.
var timestampParsers = []timeParser{
	layout("2006-01-02 15:04:05"),
	layout("2006-01-02 15:04:05.999999"),
	layout("02.01.2006 15:04:05"),
	layout("02.01.2006 15:04"),
	dayFirst,
}

func layout(l string) timeParser {
	return func(s string) (time.Time, bool) {
		t, err := time.ParseInLocation(l, s, time.UTC)
		return t, err == nil
	}
}

// dayFirst is the lenient fallback. Ambiguous numeric dates such as
// 03/04/2024 are read as 3 April.
func dayFirst(s string) (time.Time, bool) {
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	return t, err == nil
}

// ParseTimestamp normalizes an event time to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, parse := range timestampParsers {
		if t, ok := parse(s); ok {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
