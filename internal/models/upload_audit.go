package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadAudit records the outcome of every CSV upload, including the full
// list of rejected rows that the API response truncates.
type UploadAudit struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UUID         string    `json:"uuid" gorm:"uniqueIndex;size:36"`
	Actor        uint      `json:"actor" gorm:"index"`
	Filename     string    `json:"filename"`
	CreatedCount int       `json:"created_count"`
	ErrorCount   int       `json:"error_count"`
	Outcome      string    `json:"outcome"` // success, rejected, failed
	Details      string    `json:"details" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *UploadAudit) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	return nil
}
