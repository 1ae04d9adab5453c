package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path"
	"strings"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ReportStorage defines where exported report tables are written.
type ReportStorage interface {
	// PutReport writes a (headers, rows) table as CSV under a name derived from
	// name and returns the location it was stored at.
	PutReport(ctx context.Context, name string, headers []string, rows [][]string) (string, error)

	// ReportURL returns a URL (or path) a client can use to read the stored report.
	ReportURL(ctx context.Context, location string, expires time.Duration) (string, error)
}

// Error constants for storage layer
var (
	ErrInvalidReportName = errors.New("invalid report name")
	ErrReportNotFound    = errors.New("report not found in storage")
)

// encodeCSV renders the table. Cells are quoted by encoding/csv as needed; the
// output is meant for people and spreadsheets, not for re-import.
func encodeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reportFileName validates name and gives it a .csv extension.
func reportFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidReportName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name, nil
}
