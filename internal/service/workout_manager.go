package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/metrics"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Progress score weights.
const (
	completionWeight = 0.8
	attendanceWeight = 0.2
)

// ScheduleUpdate holds optional schedule changes. Empty or zero fields keep
// the current value.
type ScheduleUpdate struct {
	WorkoutName     string
	Description     string
	ScheduledTime   *time.Time
	DurationMinutes int
	WorkoutType     string
}

// MemberWorkoutStats summarises a member's schedules.
type MemberWorkoutStats struct {
	MemberID          string  `json:"memberId"`
	TotalSchedules    int     `json:"totalSchedules"`
	CompletedWorkouts int     `json:"completedWorkouts"`
	CancelledWorkouts int     `json:"cancelledWorkouts"`
	AverageCompletion float64 `json:"averageCompletion"`
}

// WorkoutManager owns workout schedules.
type WorkoutManager interface {
	CreateWorkoutSchedule(ctx context.Context, scheduleID, memberID, trainerID, workoutName string) (*domain.WorkoutSchedule, error)
	UpdateWorkoutSchedule(ctx context.Context, scheduleID string, upd ScheduleUpdate) (*domain.WorkoutSchedule, error)
	ScheduleWorkout(ctx context.Context, scheduleID string, at time.Time) (*domain.WorkoutSchedule, error)
	UpdateWorkoutProgress(ctx context.Context, scheduleID string, completionPercentage float64, notes string) (*domain.WorkoutSchedule, error)
	CompleteWorkout(ctx context.Context, scheduleID, notes string) (*domain.WorkoutSchedule, error)
	CancelWorkout(ctx context.Context, scheduleID, reason string) (*domain.WorkoutSchedule, error)
	MarkWorkoutMissed(ctx context.Context, scheduleID string) (*domain.WorkoutSchedule, error)
	AddExerciseToSchedule(ctx context.Context, scheduleID, name string, sets, reps int, weightKg float64) (*domain.WorkoutSchedule, error)
	AddCardioExerciseToSchedule(ctx context.Context, scheduleID, name string, durationSeconds int) (*domain.WorkoutSchedule, error)

	FindScheduleByID(ctx context.Context, scheduleID string) (*domain.WorkoutSchedule, error)
	GetAllWorkoutSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error)
	GetSchedulesByMember(ctx context.Context, memberID string) ([]domain.WorkoutSchedule, error)
	GetSchedulesByTrainer(ctx context.Context, trainerID string) ([]domain.WorkoutSchedule, error)
	GetSchedulesByStatus(ctx context.Context, status domain.ScheduleStatus) ([]domain.WorkoutSchedule, error)
	GetUpcomingSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error)
	GetOverdueSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error)
	GetMemberWorkoutStats(ctx context.Context, memberID string) (*MemberWorkoutStats, error)
	GetTopPerformingMembers(ctx context.Context, limit int) ([]domain.Member, error)
}

// workoutManager implements the WorkoutManager interface. Every call re-reads
// the schedule collection; member counters are updated through UserManager.
type workoutManager struct {
	mu        sync.Mutex
	schedules repository.Collection[domain.WorkoutSchedule]
	users     UserManager
	now       func() time.Time
}

// NewWorkoutManager creates a new instance of workoutManager. A nil now uses time.Now.
func NewWorkoutManager(schedules repository.Collection[domain.WorkoutSchedule], users UserManager, now func() time.Time) WorkoutManager {
	now = wholeSeconds(now)
	return &workoutManager{schedules: schedules, users: users, now: now}
}

// CreateWorkoutSchedule stores a new schedule and counts it against the
// member's total workouts right away.
func (s *workoutManager) CreateWorkoutSchedule(ctx context.Context, scheduleID, memberID, trainerID, workoutName string) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("create", resultLabel(err)) }()

	v := &ValidationError{}
	if !isValidUserID(scheduleID) {
		v.add("scheduleId", "Schedule ID must be 3-20 characters long")
	}
	if !isNotEmpty(workoutName) {
		v.add("workoutName", msgEmptyField)
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}
	scheduleID = strings.TrimSpace(scheduleID)

	if _, err = s.users.FindMemberByID(ctx, memberID); err != nil {
		return nil, err
	}
	if _, err = s.users.FindTrainerByID(ctx, trainerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.schedules.Load(ctx)
	if err != nil {
		return nil, err
	}
	if findSchedule(schedules, scheduleID) >= 0 {
		return nil, ErrScheduleIDTaken
	}

	ws := domain.NewWorkoutSchedule(scheduleID, memberID, trainerID, workoutName)
	if err = s.schedules.Save(ctx, append(schedules, ws)); err != nil {
		return nil, err
	}
	if err = s.users.RecordScheduleCreated(ctx, memberID, scheduleID); err != nil {
		// keep the two collections consistent: drop the schedule again
		if rerr := s.schedules.Save(ctx, schedules); rerr != nil {
			log.Printf("ERROR: Failed to roll back schedule %s: %v", scheduleID, rerr)
		}
		return nil, err
	}
	return &ws, nil
}

func (s *workoutManager) UpdateWorkoutSchedule(ctx context.Context, scheduleID string, upd ScheduleUpdate) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("update", resultLabel(err)) }()

	v := &ValidationError{}
	var workoutType domain.WorkoutType
	if upd.WorkoutType != "" {
		wt, perr := domain.ParseWorkoutType(strings.ToUpper(upd.WorkoutType))
		if perr != nil {
			v.add("workoutType", "Workout type must be CARDIO, STRENGTH, FLEXIBILITY, MIXED or REHABILITATION")
		}
		workoutType = wt
	}
	if upd.DurationMinutes < 0 {
		v.add("durationMinutes", "Duration must be a positive number")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, scheduleID, func(ws *domain.WorkoutSchedule) error {
		if isNotEmpty(upd.WorkoutName) {
			ws.WorkoutName = upd.WorkoutName
		}
		if isNotEmpty(upd.Description) {
			d := upd.Description
			ws.Description = &d
		}
		if upd.ScheduledTime != nil {
			at := *upd.ScheduledTime
			ws.ScheduledTime = &at
		}
		if upd.DurationMinutes > 0 {
			ws.DurationMinutes = upd.DurationMinutes
		}
		if workoutType != "" {
			ws.WorkoutType = workoutType
		}
		return nil
	})
}

func (s *workoutManager) ScheduleWorkout(ctx context.Context, scheduleID string, at time.Time) (*domain.WorkoutSchedule, error) {
	return s.UpdateWorkoutSchedule(ctx, scheduleID, ScheduleUpdate{ScheduledTime: &at})
}

// UpdateWorkoutProgress clamps the percentage to [0,100], advances the
// schedule status and recomputes the member's progress score as
// 0.8 x average completion over all the member's schedules plus
// 0.2 x the member's workout attendance percentage, capped at 100.
// The first transition to COMPLETED also counts an attended workout.
func (s *workoutManager) UpdateWorkoutProgress(ctx context.Context, scheduleID string, completionPercentage float64, notes string) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("progress", resultLabel(err)) }()

	if math.IsNaN(completionPercentage) {
		return nil, fieldError("completionPercentage", "Percentage must be between 0 and 100")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.schedules.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := findSchedule(schedules, scheduleID)
	if idx < 0 {
		return nil, ErrScheduleNotFound
	}
	ws := &schedules[idx]
	if ws.Status == domain.ScheduleCancelled {
		return nil, ErrScheduleCancelled
	}

	wasCompleted := ws.Status == domain.ScheduleCompleted
	ws.UpdateProgress(completionPercentage, notes)
	completedNow := !wasCompleted && ws.Status == domain.ScheduleCompleted

	if err = s.schedules.Save(ctx, schedules); err != nil {
		return nil, err
	}

	member, err := s.users.FindMemberByID(ctx, ws.MemberID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			log.Printf("WARN: Schedule %s references unknown member %s", scheduleID, ws.MemberID)
			return ws, nil
		}
		return nil, err
	}
	score := progressScore(schedules, ws.MemberID, member.AttendancePercentage())
	if err = s.users.RecordWorkoutProgress(ctx, ws.MemberID, score, completedNow); err != nil {
		return nil, err
	}
	return ws, nil
}

// progressScore blends average completion across the member's schedules with
// the attendance percentage. A member without schedules scores 0.
func progressScore(schedules []domain.WorkoutSchedule, memberID string, attendancePercentage float64) float64 {
	var sum float64
	var n int
	for _, ws := range schedules {
		if ws.MemberID == memberID {
			sum += ws.CompletionPercentage
			n++
		}
	}
	if n == 0 {
		return 0
	}
	avg := sum / float64(n)
	return domain.ClampPercentage(completionWeight*avg + attendanceWeight*attendancePercentage)
}

func (s *workoutManager) CompleteWorkout(ctx context.Context, scheduleID, notes string) (*domain.WorkoutSchedule, error) {
	return s.UpdateWorkoutProgress(ctx, scheduleID, 100, notes)
}

// CancelWorkout keeps the member's total workout count unchanged.
func (s *workoutManager) CancelWorkout(ctx context.Context, scheduleID, reason string) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("cancel", resultLabel(err)) }()

	return s.mutate(ctx, scheduleID, func(ws *domain.WorkoutSchedule) error {
		ws.Cancel(reason)
		return nil
	})
}

// MarkWorkoutMissed flags an overdue schedule as MISSED.
func (s *workoutManager) MarkWorkoutMissed(ctx context.Context, scheduleID string) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("missed", resultLabel(err)) }()

	now := s.now()
	return s.mutate(ctx, scheduleID, func(ws *domain.WorkoutSchedule) error {
		if ws.ScheduledTime == nil {
			return ErrScheduleNotTimed
		}
		if !isOverdue(ws, now) {
			return ErrScheduleNotOverdue
		}
		ws.Status = domain.ScheduleMissed
		return nil
	})
}

func (s *workoutManager) AddExerciseToSchedule(ctx context.Context, scheduleID, name string, sets, reps int, weightKg float64) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("add_exercise", resultLabel(err)) }()

	v := &ValidationError{}
	if !isNotEmpty(name) {
		v.add("name", msgEmptyField)
	}
	if sets <= 0 {
		v.add("sets", "Sets must be a positive number")
	}
	if reps <= 0 {
		v.add("reps", "Reps must be a positive number")
	}
	if weightKg < 0 || math.IsNaN(weightKg) {
		v.add("weightKg", "Weight must not be negative")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, scheduleID, func(ws *domain.WorkoutSchedule) error {
		ws.AddExercise(domain.NewStrengthExercise(name, sets, reps, weightKg))
		return nil
	})
}

func (s *workoutManager) AddCardioExerciseToSchedule(ctx context.Context, scheduleID, name string, durationSeconds int) (schedule *domain.WorkoutSchedule, err error) {
	defer func() { metrics.ObserveWorkout("add_exercise", resultLabel(err)) }()

	v := &ValidationError{}
	if !isNotEmpty(name) {
		v.add("name", msgEmptyField)
	}
	if durationSeconds <= 0 {
		v.add("durationSeconds", "Duration must be a positive number")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, scheduleID, func(ws *domain.WorkoutSchedule) error {
		ws.AddExercise(domain.NewTimedExercise(name, durationSeconds))
		return nil
	})
}

// mutate loads all schedules, applies fn to one and saves the collection.
func (s *workoutManager) mutate(ctx context.Context, scheduleID string, fn func(*domain.WorkoutSchedule) error) (*domain.WorkoutSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.schedules.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := findSchedule(schedules, scheduleID)
	if idx < 0 {
		return nil, ErrScheduleNotFound
	}
	ws := &schedules[idx]
	if err := fn(ws); err != nil {
		return nil, err
	}
	if err := s.schedules.Save(ctx, schedules); err != nil {
		return nil, err
	}
	return ws, nil
}

func findSchedule(schedules []domain.WorkoutSchedule, scheduleID string) int {
	for i := range schedules {
		if schedules[i].ScheduleID == scheduleID {
			return i
		}
	}
	return -1
}

func isOverdue(ws *domain.WorkoutSchedule, now time.Time) bool {
	return ws.ScheduledTime != nil && ws.ScheduledTime.Before(now) &&
		(ws.Status == domain.ScheduleScheduled || ws.Status == domain.ScheduleInProgress)
}

// --- Queries ---

func (s *workoutManager) FindScheduleByID(ctx context.Context, scheduleID string) (*domain.WorkoutSchedule, error) {
	schedules, err := s.schedules.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := findSchedule(schedules, scheduleID)
	if idx < 0 {
		return nil, ErrScheduleNotFound
	}
	return &schedules[idx], nil
}

func (s *workoutManager) GetAllWorkoutSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error) {
	return s.schedules.Load(ctx)
}

func (s *workoutManager) GetSchedulesByMember(ctx context.Context, memberID string) ([]domain.WorkoutSchedule, error) {
	return s.filter(ctx, func(ws *domain.WorkoutSchedule) bool { return ws.MemberID == memberID })
}

func (s *workoutManager) GetSchedulesByTrainer(ctx context.Context, trainerID string) ([]domain.WorkoutSchedule, error) {
	return s.filter(ctx, func(ws *domain.WorkoutSchedule) bool { return ws.TrainerID == trainerID })
}

func (s *workoutManager) GetSchedulesByStatus(ctx context.Context, status domain.ScheduleStatus) ([]domain.WorkoutSchedule, error) {
	return s.filter(ctx, func(ws *domain.WorkoutSchedule) bool { return ws.Status == status })
}

// GetUpcomingSchedules returns SCHEDULED sessions in the future, soonest first.
func (s *workoutManager) GetUpcomingSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error) {
	now := s.now()
	out, err := s.filter(ctx, func(ws *domain.WorkoutSchedule) bool {
		return ws.ScheduledTime != nil && ws.ScheduledTime.After(now) && ws.Status == domain.ScheduleScheduled
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledTime.Before(*out[j].ScheduledTime) })
	return out, nil
}

// GetOverdueSchedules returns sessions whose time has passed without completion.
func (s *workoutManager) GetOverdueSchedules(ctx context.Context) ([]domain.WorkoutSchedule, error) {
	now := s.now()
	return s.filter(ctx, func(ws *domain.WorkoutSchedule) bool { return isOverdue(ws, now) })
}

func (s *workoutManager) filter(ctx context.Context, keep func(*domain.WorkoutSchedule) bool) ([]domain.WorkoutSchedule, error) {
	schedules, err := s.schedules.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.WorkoutSchedule{}
	for i := range schedules {
		if keep(&schedules[i]) {
			out = append(out, schedules[i])
		}
	}
	return out, nil
}

func (s *workoutManager) GetMemberWorkoutStats(ctx context.Context, memberID string) (*MemberWorkoutStats, error) {
	schedules, err := s.GetSchedulesByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	stats := &MemberWorkoutStats{MemberID: memberID, TotalSchedules: len(schedules)}
	var sum float64
	for _, ws := range schedules {
		switch ws.Status {
		case domain.ScheduleCompleted:
			stats.CompletedWorkouts++
		case domain.ScheduleCancelled:
			stats.CancelledWorkouts++
		}
		sum += ws.CompletionPercentage
	}
	if len(schedules) > 0 {
		stats.AverageCompletion = sum / float64(len(schedules))
	}
	return stats, nil
}

// GetTopPerformingMembers returns up to limit active members by progress score, highest first.
func (s *workoutManager) GetTopPerformingMembers(ctx context.Context, limit int) ([]domain.Member, error) {
	if limit <= 0 {
		return nil, fieldError("limit", "Limit must be a positive number")
	}
	members, err := s.users.GetAllActiveMembers(ctx)
	if err != nil {
		return nil, err
	}
	return topByProgress(members, limit), nil
}

func topByProgress(members []domain.Member, limit int) []domain.Member {
	sorted := append([]domain.Member(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProgressScore > sorted[j].ProgressScore })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []domain.Member{}
	}
	return sorted
}
