package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/models"
)

var (
	ErrLogNotFound   = errors.New("log record not found")
	ErrNoIDsToDelete = errors.New("no log ids provided")
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
	insertBatchSize = 500
	// deleteChunkSize stays below SQLite's bound-variable limit.
	deleteChunkSize = 900

	// MaxPageNumber keeps the row offset within int.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// LogFilter narrows a record listing. Zero values mean "no filter".
type LogFilter struct {
	Severity models.Severity
	SourceIP string
	// Start and End are inclusive calendar dates (UTC).
	Start  *time.Time
	End    *time.Time
	Search string
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// LogService is the record store. Records are never updated in place.
type LogService struct {
	db *gorm.DB
}

// NewLogService returns a LogService using the provided DB
func NewLogService(db *gorm.DB) *LogService {
	return &LogService{db: db}
}

// CreateBatch inserts records inside one transaction, so the batch lands
// entirely or not at all.
func (s *LogService) CreateBatch(ctx context.Context, records []models.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, insertBatchSize).Error
	})
}

// Create validates in and stores it as a single record.
func (s *LogService) Create(ctx context.Context, in ingest.RecordInput, actor uint) (*models.LogRecord, error) {
	rec, err := ingest.Normalize(in, actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrInvalidRecord, err)
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns one record by id.
func (s *LogService) Get(ctx context.Context, id uint) (*models.LogRecord, error) {
	var rec models.LogRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns one page of records matching f, newest first, and the total
// number of matches.
func (s *LogService) List(ctx context.Context, f LogFilter, page Page) ([]models.LogRecord, int64, error) {
	page = page.Normalize()
	q := applyFilter(s.db.WithContext(ctx).Model(&models.LogRecord{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	records := make([]models.LogRecord, 0, page.Size)
	err := q.Order("timestamp DESC").Order("id DESC").
		Offset((page.Number - 1) * page.Size).
		Limit(page.Size).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// BulkDelete removes the records with the given ids in one transaction and
// returns how many existed. Unknown ids are ignored.
func (s *LogService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDsToDelete
	}
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += deleteChunkSize {
			end := min(start+deleteChunkSize, len(ids))
			res := tx.Where("id IN ?", ids[start:end]).Delete(&models.LogRecord{})
			if res.Error != nil {
				return res.Error
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func applyFilter(q *gorm.DB, f LogFilter) *gorm.DB {
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.SourceIP != "" {
		q = q.Where("source_ip = ?", f.SourceIP)
	}
	if f.Start != nil {
		q = q.Where("timestamp >= ?", startOfDay(*f.Start))
	}
	if f.End != nil {
		q = q.Where("timestamp < ?", startOfDay(*f.End).AddDate(0, 0, 1))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(models.FoldSearch(f.Search)) + "%"
		q = q.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
