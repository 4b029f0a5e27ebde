package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogRecord is a single ingested security event. Records are never updated;
// they are created by ingestion and removed only by bulk delete.
type LogRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UUID       string    `json:"uuid" gorm:"uniqueIndex;size:36"`
	Timestamp  time.Time `json:"timestamp" gorm:"index;not null"`
	SourceIP   string    `json:"source_ip" gorm:"index;size:45;not null"`
	Severity   Severity  `json:"severity" gorm:"index;size:16;not null"`
	ThreatType string    `json:"threat_type" gorm:"size:100;index"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	Location   string    `json:"location" gorm:"size:255"`
	UserAgent  string    `json:"user_agent" gorm:"size:512"`
	UploadedBy uint      `json:"uploaded_by" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	// SearchText is the lowercased message, threat type and source IP.
	// SQLite's LOWER only folds ASCII, so folding happens here.
	SearchText string `json:"-" gorm:"type:text"`
}

// searchFieldSep keeps a search term from matching across two fields.
const searchFieldSep = "\x1f"

// FoldSearch lowercases s the same way SearchText is built.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// BeforeCreate assigns the public UUID, pins timestamps to UTC and builds
// the search column.
func (r *LogRecord) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	r.Timestamp = r.Timestamp.UTC()
	r.SearchText = FoldSearch(strings.Join([]string{r.Message, r.ThreatType, r.SourceIP}, searchFieldSep))
	return nil
}
