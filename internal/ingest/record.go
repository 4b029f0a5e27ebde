package ingest

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/Wikid82/logtrackr/internal/models"
)

// Canonical column names. Field values are looked up by these keys.
const (
	ColTimestamp  = "timestamp"
	ColSourceIP   = "source_ip"
	ColSeverity   = "severity"
	ColMessage    = "message"
	ColThreatType = "threat_type"
	ColLocation   = "location"
	ColUserAgent  = "user_agent"
)

// RequiredColumns must be present and non-empty on every row.
var RequiredColumns = []string{ColTimestamp, ColSourceIP, ColSeverity, ColMessage}

// columnAliases maps header names used by older exports onto canonical columns.
var columnAliases = map[string]string{
	"receive_time": ColTimestamp,
	"ip_address":   ColSourceIP,
	"ip":           ColSourceIP,
	"threat":       ColMessage,
	"type":         ColThreatType,
}

// CanonicalColumn normalizes a header cell to its canonical column name.
func CanonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

// RecordInput carries the raw textual fields of one event, keyed by canonical column.
type RecordInput map[string]string

func (in RecordInput) get(col string) string {
	return strings.TrimSpace(in[col])
}

// Normalize validates in and builds the record attributed to actor. Checks
// run in order: required fields, timestamp, severity, source IP.
func Normalize(in RecordInput, actor uint) (models.LogRecord, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if in.get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return models.LogRecord{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	ts, err := ParseTimestamp(in.get(ColTimestamp))
	if err != nil {
		return models.LogRecord{}, err
	}

	severity, err := models.ParseSeverity(in.get(ColSeverity))
	if err != nil {
		return models.LogRecord{}, err
	}

	addr, err := netip.ParseAddr(in.get(ColSourceIP))
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("invalid source IP %q", in.get(ColSourceIP))
	}

	return models.LogRecord{
		Timestamp:  ts,
		SourceIP:   addr.String(),
		Severity:   severity,
		ThreatType: in.get(ColThreatType),
		Message:    in.get(ColMessage),
		Location:   in.get(ColLocation),
		UserAgent:  in.get(ColUserAgent),
		UploadedBy: actor,
	}, nil
}
