package storage

import (
	"alcyxob/gym-manager/internal/config"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLocalStoragePutReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	headers := []string{"Metric", "Value"}
	rows := [][]string{{"Total Revenue", "50.00"}, {"Note", "commas, \"quotes\" and more"}}
	loc, err := store.PutReport(context.Background(), "revenue_2024", headers, rows)
	if err != nil {
		t.Fatalf("PutReport: %v", err)
	}
	if filepath.Base(loc) != "revenue_2024.csv" {
		t.Errorf("location = %s, want revenue_2024.csv in %s", loc, dir)
	}

	f, err := os.Open(loc)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := append([][]string{headers}, rows...)
	if !reflect.DeepEqual(records, want) {
		t.Errorf("report contents = %v, want %v", records, want)
	}

	url, err := store.ReportURL(context.Background(), loc, time.Minute)
	if err != nil || url != loc {
		t.Errorf("ReportURL = %q, %v", url, err)
	}
	if _, err := store.ReportURL(context.Background(), filepath.Join(dir, "missing.csv"), 0); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}

func TestReportFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "attendance", want: "attendance.csv"},
		{in: "members.CSV", want: "members.CSV"},
		{in: "  padded  ", want: "padded.csv"},
		{in: "", wantErr: true},
		{in: "../escape", wantErr: true},
		{in: "nested/name", wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := reportFileName(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidReportName) {
					t.Fatalf("expected ErrInvalidReportName, got %q, %v", got, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("reportFileName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		})
	}
}

func TestS3ReportURLIsPresigned(t *testing.T) {
	store, err := NewS3Storage(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "test-access",
		SecretAccessKey: "test-secret",
		BucketName:      "gym-reports",
	})
	if err != nil {
		t.Fatalf("NewS3Storage: %v", err)
	}

	key := reportObjectKey("revenue.csv")
	if !strings.HasPrefix(key, reportKeyPrefix) || !strings.HasSuffix(key, "-revenue.csv") {
		t.Fatalf("unexpected object key %q", key)
	}

	url, err := store.ReportURL(context.Background(), key, 5*time.Minute)
	if err != nil {
		t.Fatalf("ReportURL: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:9000/gym-reports/reports/") {
		t.Errorf("presigned URL should be path-style on the custom endpoint, got %s", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("presigned URL is missing a signature: %s", url)
	}
}
