package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/repository/flatfile"
	"context"
	"errors"
	"testing"
	"time"
)

// testClock is a settable clock. Times are whole seconds in time.Local so they
// survive the flat-file round trip unchanged.
type testClock struct {
	t time.Time
}

func newTestClock(year int, month time.Month, day, hour, minute int) *testClock {
	return &testClock{t: time.Date(year, month, day, hour, minute, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) set(hour, minute int) {
	y, m, d := c.t.Date()
	c.t = time.Date(y, m, d, hour, minute, 0, 0, time.Local)
}

func (c *testClock) advanceDays(n int) { c.t = c.t.AddDate(0, 0, n) }

type testEnv struct {
	repos      repository.Repositories
	clock      *testClock
	users      UserManager
	attendance AttendanceManager
	workouts   WorkoutManager
	reports    ReportManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos, err := flatfile.NewRepositories(t.TempDir())
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	return newTestEnvWith(repos)
}

func newTestEnvWith(repos repository.Repositories) *testEnv {
	clock := newTestClock(2024, time.March, 10, 9, 0)
	users := NewUserManager(repos, clock.Now)
	attendance := NewAttendanceManager(repos.Attendance, users, nil, clock.Now)
	workouts := NewWorkoutManager(repos.Schedules, users, clock.Now)
	return &testEnv{
		repos:      repos,
		clock:      clock,
		users:      users,
		attendance: attendance,
		workouts:   workouts,
		reports:    NewReportManager(repos.Plans, users, attendance, workouts, nil, clock.Now),
	}
}

func (e *testEnv) addMember(t *testing.T, id, membershipType string) *domain.Member {
	t.Helper()
	m, err := e.users.AddMember(context.Background(), NewMemberInput{
		UserID:         id,
		Name:           "Alex Member",
		Email:          id + "@example.com",
		Phone:          "5551234567",
		Password:       "secret",
		MembershipType: membershipType,
	})
	if err != nil {
		t.Fatalf("AddMember(%s): %v", id, err)
	}
	return m
}

func (e *testEnv) addTrainer(t *testing.T, id string) *domain.Trainer {
	t.Helper()
	tr, err := e.users.AddTrainer(context.Background(), NewTrainerInput{
		UserID:          id,
		Name:            "Coach Carter",
		Email:           id + "@example.com",
		Phone:           "+15551234567",
		Password:        "secret",
		Specialization:  "Strength",
		ExperienceYears: 5,
	})
	if err != nil {
		t.Fatalf("AddTrainer(%s): %v", id, err)
	}
	return tr
}

func (e *testEnv) member(t *testing.T, id string) *domain.Member {
	t.Helper()
	m, err := e.users.FindMemberByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindMemberByID(%s): %v", id, err)
	}
	return m
}

var errDiskFull = errors.New("disk full")

// failingCollection delegates to a real collection but can be told to fail saves.
type failingCollection[T any] struct {
	repository.Collection[T]
	failSave bool
}

func (c *failingCollection[T]) Save(ctx context.Context, items []T) error {
	if c.failSave {
		return errDiskFull
	}
	return c.Collection.Save(ctx, items)
}
