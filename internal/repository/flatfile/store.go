package flatfile

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File names inside the data directory, one per entity kind.
const (
	MembersFile    = "members.csv"
	TrainersFile   = "trainers.csv"
	AdminsFile     = "admins.csv"
	SchedulesFile  = "schedules.csv"
	AttendanceFile = "attendance.csv"
	PlansFile      = "subscription_plans.csv"
)

// fileCollection implements repository.Collection[T] over one header-plus-rows file.
type fileCollection[T any] struct {
	mu      sync.Mutex
	path    string
	columns []string
	encode  func(T) []string
	decode  func(*rowReader) T
}

// NewRepositories opens (creating if needed) dataDir and returns file-backed
// collections for every entity kind.
func NewRepositories(dataDir string) (repository.Repositories, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return repository.Repositories{}, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	log.Printf("INFO: Flat-file storage initialized in %s", dataDir)
	return repository.Repositories{
		Members:    newFileCollection(filepath.Join(dataDir, MembersFile), memberColumns, encodeMember, decodeMember),
		Trainers:   newFileCollection(filepath.Join(dataDir, TrainersFile), trainerColumns, encodeTrainer, decodeTrainer),
		Admins:     newFileCollection(filepath.Join(dataDir, AdminsFile), adminColumns, encodeAdmin, decodeAdmin),
		Schedules:  newFileCollection(filepath.Join(dataDir, SchedulesFile), scheduleColumns, encodeSchedule, decodeSchedule),
		Attendance: newFileCollection(filepath.Join(dataDir, AttendanceFile), attendanceColumns, encodeAttendance, decodeAttendance),
		Plans:      newFileCollection(filepath.Join(dataDir, PlansFile), planColumns, encodePlan, decodePlan),
	}, nil
}

func newFileCollection[T any](path string, columns []string, encode func(T) []string, decode func(*rowReader) T) *fileCollection[T] {
	return &fileCollection[T]{path: path, columns: columns, encode: encode, decode: decode}
}

// Load reads every row. A missing file is an empty collection; malformed rows
// are logged and skipped.
func (c *fileCollection[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items := []T{}
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	name := filepath.Base(c.path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNo == 1 {
			if line != strings.Join(c.columns, fieldSep) {
				log.Printf("WARN: %s has an unexpected header %q", name, line)
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r := newRowReader(line)
		item := c.decode(r)
		if err := r.done(); err != nil {
			log.Printf("WARN: %s line %d skipped: %v", name, lineNo, err)
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", repository.ErrCorruptRecord, c.path, err)
	}
	return items, nil
}

// Save rewrites the whole file through a temp file and rename, so readers
// never observe a half-written collection.
func (c *fileCollection[T]) Save(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Join(c.columns, fieldSep))
	b.WriteByte('\n')
	for _, item := range items {
		b.WriteString(strings.Join(c.encode(item), fieldSep))
		b.WriteByte('\n')
	}

	if err := writeFileAtomic(c.path, []byte(b.String())); err != nil {
		log.Printf("ERROR: Failed to save %s: %v", c.path, err)
		return fmt.Errorf("%w: %s: %v", repository.ErrSaveFailed, filepath.Base(c.path), err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// compile-time checks
var (
	_ repository.Collection[domain.Member]           = (*fileCollection[domain.Member])(nil)
	_ repository.Collection[domain.WorkoutSchedule]  = (*fileCollection[domain.WorkoutSchedule])(nil)
	_ repository.Collection[domain.SubscriptionPlan] = (*fileCollection[domain.SubscriptionPlan])(nil)
)
