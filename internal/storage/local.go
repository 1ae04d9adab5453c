package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"
)

// localStorage writes reports into a directory on disk.
type localStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed and returns a ReportStorage rooted there.
func NewLocalStorage(dir string) (ReportStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory %s: %w", dir, err)
	}
	log.Printf("INFO: Local report storage initialized in %s", dir)
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) PutReport(ctx context.Context, name string, headers []string, rows [][]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fileName, err := reportFileName(name)
	if err != nil {
		return "", err
	}
	data, err := encodeCSV(headers, rows)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Printf("ERROR: Failed to write report %s: %v", target, err)
		return "", err
	}
	log.Printf("INFO: Report exported to %s", target)
	return target, nil
}

// ReportURL returns the file path; local reports have no expiry.
func (s *localStorage) ReportURL(ctx context.Context, location string, _ time.Duration) (string, error) {
	if _, err := os.Stat(location); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrReportNotFound
		}
		return "", err
	}
	return location, nil
}
