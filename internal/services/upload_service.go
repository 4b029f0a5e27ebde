package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/metrics"
	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/util"
)

// Upload outcomes recorded on the audit row and in metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// UploadNotifier is told about every successful upload.
type UploadNotifier interface {
	NotifyUpload(actor, filename string, res *ingest.Result)
}

// Upload is one CSV file submitted by an account.
type Upload struct {
	Filename  string
	Size      int64
	Body      io.Reader
	ActorID   uint
	ActorName string
}

// UploadService runs the ingestion pipeline and keeps an audit trail of
// every upload, including all rejected rows.
type UploadService struct {
	db       *gorm.DB
	pipeline *ingest.Pipeline
	notifier UploadNotifier
}

// NewUploadService wires the pipeline to the record store in db. notifier may be nil.
func NewUploadService(db *gorm.DB, store ingest.RecordWriter, maxBytes int64, notifier UploadNotifier) *UploadService {
	return &UploadService{
		db:       db,
		pipeline: ingest.NewPipeline(store, maxBytes),
		notifier: notifier,
	}
}

// MaxBytes is the upload size limit.
func (s *UploadService) MaxBytes() int64 { return s.pipeline.MaxBytes() }

// CheckFile applies the name and size gate before the body is read.
func (s *UploadService) CheckFile(filename string, size int64) error {
	return s.pipeline.CheckFile(filename, size)
}

// Ingest validates and stores the upload. A partially valid file succeeds;
// errors are ingest rejections (client fault) or ingest.ErrStorage.
func (s *UploadService) Ingest(ctx context.Context, up Upload) (*ingest.Result, error) {
	entry := logger.WithFields(logrus.Fields{
		"actor":    up.ActorID,
		"filename": util.SanitizeUserValue(up.Filename),
		"size":     up.Size,
	})

	if err := s.pipeline.CheckFile(up.Filename, up.Size); err != nil {
		metrics.ObserveUpload(OutcomeRejected, 0, 0)
		entry.WithError(err).Info("upload rejected before parsing")
		return nil, err
	}

	res, err := s.pipeline.Ingest(ctx, up.Body, up.ActorID)
	outcome := outcomeOf(err)

	created, rejected := 0, 0
	if res != nil {
		created, rejected = res.Created, res.Rejected
	}
	metrics.ObserveUpload(outcome, created, rejected)
	s.audit(ctx, up, outcome, res, err)

	if err != nil {
		entry.WithError(err).WithField("outcome", outcome).Warn("csv upload failed")
		return res, err
	}

	entry.WithFields(logrus.Fields{"created": created, "rejected": rejected}).Info("csv upload ingested")
	if s.notifier != nil {
		s.notifier.NotifyUpload(up.ActorName, up.Filename, res)
	}
	return res, nil
}

func (s *UploadService) audit(ctx context.Context, up Upload, outcome string, res *ingest.Result, ingestErr error) {
	a := models.UploadAudit{
		Actor:    up.ActorID,
		Filename: util.Truncate(up.Filename, 255),
		Outcome:  outcome,
	}
	var lines []string
	if res != nil {
		a.CreatedCount = res.Created
		a.ErrorCount = res.Rejected
		lines = res.Messages(0)
	}
	var noRows *ingest.NoValidRowsError
	if ingestErr != nil && !errors.As(ingestErr, &noRows) {
		lines = append([]string{ingestErr.Error()}, lines...)
	}
	a.Details = strings.Join(lines, "\n")

	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		logger.Log().WithError(err).Error("failed to record upload audit")
	}
}

// RecentAudits returns the latest uploads by actor.
func (s *UploadService) RecentAudits(ctx context.Context, actor uint, limit int) ([]models.UploadAudit, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var audits []models.UploadAudit
	err := s.db.WithContext(ctx).Where("actor = ?", actor).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		return nil, fmt.Errorf("list upload audits: %w", err)
	}
	return audits, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case ingest.IsRejection(err):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
