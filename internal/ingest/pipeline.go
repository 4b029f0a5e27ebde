package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/util"
)

// DefaultMaxBytes caps uploads at 10 MiB.
const DefaultMaxBytes int64 = 10 << 20

// RecordWriter persists a batch of records atomically: either every record
// lands or none does.
type RecordWriter interface {
	CreateBatch(ctx context.Context, records []models.LogRecord) error
}

// Result summarizes one ingestion run.
type Result struct {
	Created        int
	Rejected       int
	Errors         []RowError
	SeverityCounts map[models.Severity]int
}

// Messages returns up to limit human-readable row errors, in file order.
func (r *Result) Messages(limit int) []string {
	if limit <= 0 || limit > len(r.Errors) {
		limit = len(r.Errors)
	}
	out := make([]string, 0, limit)
	for _, e := range r.Errors[:limit] {
		out = append(out, e.Error())
	}
	return out
}

// Pipeline turns an uploaded CSV into stored log records.
type Pipeline struct {
	store    RecordWriter
	maxBytes int64
}

// NewPipeline returns a pipeline writing to store. maxBytes <= 0 selects DefaultMaxBytes.
func NewPipeline(store RecordWriter, maxBytes int64) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Pipeline{store: store, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted upload.
func (p *Pipeline) MaxBytes() int64 { return p.maxBytes }

// CheckFile rejects uploads by name suffix and declared size before any parsing.
func (p *Pipeline) CheckFile(filename string, size int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return ErrNotCSV
	}
	if size > p.maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, p.maxBytes)
	}
	return nil
}

// Ingest parses r, validates every row and stores all valid rows with a
// single bulk insert. The returned Result is non-nil whenever parsing got
// past the header, including when err is a *NoValidRowsError or ErrStorage.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, actor uint) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrMalformedCSV, err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, p.maxBytes)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not valid UTF-8", ErrMalformedCSV)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	columns, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	res := &Result{SeverityCounts: make(map[models.Severity]int)}
	var valid []models.LogRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		line, _ := reader.FieldPos(0)

		in := make(RecordInput, len(columns))
		for col, idx := range columns {
			if idx < len(row) {
				in[col] = row[idx]
			}
		}

		rec, err := Normalize(in, actor)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Reason: err.Error()})
			continue
		}
		valid = append(valid, rec)
		res.SeverityCounts[rec.Severity]++
	}
	res.Rejected = len(res.Errors)
	logRowErrors(actor, res.Errors)

	if len(valid) == 0 {
		return res, &NoValidRowsError{Errors: res.Errors}
	}

	if err := p.store.CreateBatch(ctx, valid); err != nil {
		return res, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	res.Created = len(valid)
	return res, nil
}

// readHeader maps canonical column names to their index. The first
// occurrence of a column wins.
func readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		col := CanonicalColumn(h)
		if _, seen := columns[col]; !seen && col != "" {
			columns[col] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

func logRowErrors(actor uint, errs []RowError) {
	for _, e := range errs {
		logger.WithFields(logrus.Fields{
			"actor":  actor,
			"row":    e.Row,
			"reason": util.SanitizeUserValue(e.Reason),
		}).Warn("csv row rejected")
	}
}
