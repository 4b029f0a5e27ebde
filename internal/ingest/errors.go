package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotCSV         = errors.New("only .csv files are accepted")
	ErrFileTooLarge   = errors.New("file exceeds the upload size limit")
	ErrMalformedCSV   = errors.New("malformed CSV")
	ErrMissingColumns = errors.New("CSV is missing required columns")
	ErrStorage        = errors.New("bulk insert failed")
	ErrInvalidRecord  = errors.New("invalid log record")
)

// RowError describes why a single data row was rejected. Row is the 1-based
// line number in the uploaded file, so the header is row 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// NoValidRowsError is returned when a file parsed cleanly but none of its
// rows could be ingested.
type NoValidRowsError struct {
	Errors []RowError
}

func (e *NoValidRowsError) Error() string {
	if len(e.Errors) == 0 {
		return "no log records could be ingested: file has no data rows"
	}
	return fmt.Sprintf("no log records could be ingested: %s", joinRowErrors(e.Errors, 3))
}

// IsRejection reports whether err is caused by the uploaded input rather than
// by the server, i.e. whether it maps to a client error.
func IsRejection(err error) bool {
	var noRows *NoValidRowsError
	return errors.As(err, &noRows) ||
		errors.Is(err, ErrNotCSV) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrMalformedCSV) ||
		errors.Is(err, ErrMissingColumns)
}

func joinRowErrors(errs []RowError, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, e := range errs {
		if i == limit {
			parts = append(parts, fmt.Sprintf("and %d more", len(errs)-limit))
			break
		}
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}
