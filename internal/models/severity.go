package models

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a security event is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every accepted severity, most severe first.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// ParseSeverity trims and lowercases raw and checks it against Severities.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.Valid() {
		return s, nil
	}
	return "", fmt.Errorf("invalid severity %q", string(s))
}

// Valid reports whether s is one of the canonical severities.
func (s Severity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// ZeroSeverityCounts returns a count map with every severity present.
func ZeroSeverityCounts() map[Severity]int64 {
	counts := make(map[Severity]int64, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	return counts
}
