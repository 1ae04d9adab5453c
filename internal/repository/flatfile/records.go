package flatfile

import (
	"alcyxob/gym-manager/internal/domain"
	"fmt"
	"strconv"
	"strings"
)

var (
	memberColumns = []string{
		"userId", "name", "email", "phone", "passwordHash", "membershipType",
		"membershipStartDate", "membershipEndDate", "isActive", "assignedTrainerId",
		"progressScore", "totalWorkouts", "attendedWorkouts", "workoutScheduleIds", "createdAt",
	}
	trainerColumns = []string{
		"userId", "name", "email", "phone", "passwordHash", "specialization",
		"experienceYears", "isActive", "assignedMemberIds", "createdAt",
	}
	adminColumns = []string{
		"userId", "name", "email", "phone", "passwordHash", "adminLevel", "isActive", "createdAt",
	}
	attendanceColumns = []string{
		"attendanceId", "memberId", "memberName", "date", "checkInTime", "checkOutTime",
		"workoutScheduleId", "status", "notes",
	}
	scheduleColumns = []string{
		"scheduleId", "memberId", "trainerId", "workoutName", "description", "scheduledTime",
		"durationMinutes", "workoutType", "status", "completionPercentage", "progressNotes", "exercises",
	}
	planColumns = []string{
		"planId", "planName", "description", "price", "durationMonths", "planType",
		"isActive", "benefits", "maxWorkoutsPerWeek", "includesPersonalTrainer",
	}
)

// --- Member ---

func encodeMember(m domain.Member) []string {
	return []string{
		encText(m.UserID), encText(m.Name), encText(m.Email), encText(m.Phone), encText(m.PasswordHash),
		encText(string(m.MembershipType)), encDate(m.MembershipStartDate), encDate(m.MembershipEndDate),
		encBool(m.IsActive), encOptText(m.AssignedTrainerID), encFloat(m.ProgressScore),
		encInt(m.TotalWorkouts), encInt(m.AttendedWorkouts), encList(m.WorkoutScheduleIDs), encTime(m.CreatedAt),
	}
}

func decodeMember(r *rowReader) domain.Member {
	m := domain.Member{}
	m.Role = domain.RoleMember
	m.UserID = r.requiredText()
	m.Name = r.text()
	m.Email = r.text()
	m.Phone = r.text()
	m.PasswordHash = r.text()
	cell, col := r.raw()
	if r.err == nil {
		mt, err := domain.ParseMembershipType(unescape(cell))
		if err != nil {
			r.fail(col, err)
		}
		m.MembershipType = mt
	}
	m.MembershipStartDate = r.date()
	m.MembershipEndDate = r.date()
	m.IsActive = r.bool()
	m.AssignedTrainerID = r.optText()
	m.ProgressScore = r.float()
	m.TotalWorkouts = r.int()
	m.AttendedWorkouts = r.int()
	m.WorkoutScheduleIDs = r.list()
	m.CreatedAt = r.timestamp()
	return m
}

// --- Trainer ---

func encodeTrainer(t domain.Trainer) []string {
	return []string{
		encText(t.UserID), encText(t.Name), encText(t.Email), encText(t.Phone), encText(t.PasswordHash),
		encText(t.Specialization), encInt(t.ExperienceYears), encBool(t.IsActive),
		encList(t.AssignedMemberIDs), encTime(t.CreatedAt),
	}
}

func decodeTrainer(r *rowReader) domain.Trainer {
	t := domain.Trainer{}
	t.Role = domain.RoleTrainer
	t.UserID = r.requiredText()
	t.Name = r.text()
	t.Email = r.text()
	t.Phone = r.text()
	t.PasswordHash = r.text()
	t.Specialization = r.text()
	t.ExperienceYears = r.int()
	t.IsActive = r.bool()
	t.AssignedMemberIDs = r.list()
	t.CreatedAt = r.timestamp()
	return t
}

// --- Admin ---

func encodeAdmin(a domain.Admin) []string {
	return []string{
		encText(a.UserID), encText(a.Name), encText(a.Email), encText(a.Phone), encText(a.PasswordHash),
		encText(a.AdminLevel), encBool(a.IsActive), encTime(a.CreatedAt),
	}
}

func decodeAdmin(r *rowReader) domain.Admin {
	a := domain.Admin{}
	a.Role = domain.RoleAdmin
	a.UserID = r.requiredText()
	a.Name = r.text()
	a.Email = r.text()
	a.Phone = r.text()
	a.PasswordHash = r.text()
	a.AdminLevel = r.text()
	a.IsActive = r.bool()
	a.CreatedAt = r.timestamp()
	return a
}

// --- Attendance ---

func encodeAttendance(a domain.Attendance) []string {
	return []string{
		encText(a.AttendanceID), encText(a.MemberID), encText(a.MemberName), encDate(a.Date),
		encOptTime(a.CheckInTime), encOptTime(a.CheckOutTime), encOptText(a.WorkoutScheduleID),
		string(a.Status), encOptText(a.Notes),
	}
}

func decodeAttendance(r *rowReader) domain.Attendance {
	a := domain.Attendance{}
	a.AttendanceID = r.requiredText()
	a.MemberID = r.requiredText()
	a.MemberName = r.text()
	a.Date = r.date()
	a.CheckInTime = r.optTimestamp()
	a.CheckOutTime = r.optTimestamp()
	a.WorkoutScheduleID = r.optText()
	cell, col := r.raw()
	if r.err == nil {
		st, err := domain.ParseAttendanceStatus(cell)
		if err != nil {
			r.fail(col, err)
		}
		a.Status = st
	}
	a.Notes = r.optText()
	return a
}

// --- WorkoutSchedule ---

func encodeSchedule(s domain.WorkoutSchedule) []string {
	return []string{
		encText(s.ScheduleID), encText(s.MemberID), encText(s.TrainerID), encText(s.WorkoutName),
		encOptText(s.Description), encOptTime(s.ScheduledTime), encInt(s.DurationMinutes),
		string(s.WorkoutType), string(s.Status), encFloat(s.CompletionPercentage),
		encOptText(s.ProgressNotes), encodeExercises(s.Exercises),
	}
}

func decodeSchedule(r *rowReader) domain.WorkoutSchedule {
	s := domain.WorkoutSchedule{}
	s.ScheduleID = r.requiredText()
	s.MemberID = r.requiredText()
	s.TrainerID = r.requiredText()
	s.WorkoutName = r.text()
	s.Description = r.optText()
	s.ScheduledTime = r.optTimestamp()
	s.DurationMinutes = r.int()

	cell, col := r.raw()
	if r.err == nil {
		wt, err := domain.ParseWorkoutType(cell)
		if err != nil {
			r.fail(col, err)
		}
		s.WorkoutType = wt
	}
	cell, col = r.raw()
	if r.err == nil {
		st, err := domain.ParseScheduleStatus(cell)
		if err != nil {
			r.fail(col, err)
		}
		s.Status = st
	}
	s.CompletionPercentage = r.float()
	s.ProgressNotes = r.optText()

	cell, col = r.raw()
	if r.err == nil {
		exercises, err := decodeExercises(cell)
		if err != nil {
			r.fail(col, err)
		}
		s.Exercises = exercises
	}
	return s
}

// encodeExercises flattens exercises into one cell:
// name:sets:reps:weightKg:durationSeconds:instructions joined by '|'.
func encodeExercises(exercises []domain.Exercise) string {
	items := make([]string, len(exercises))
	for i, e := range exercises {
		items[i] = strings.Join([]string{
			escape(e.Name), encInt(e.Sets), encInt(e.Reps), encFloat(e.WeightKg),
			encInt(e.DurationSeconds), escape(e.Instructions),
		}, subFieldSep)
	}
	return strings.Join(items, listSep)
}

func decodeExercises(cell string) ([]domain.Exercise, error) {
	exercises := []domain.Exercise{}
	if cell == "" {
		return exercises, nil
	}
	for i, item := range strings.Split(cell, listSep) {
		parts := strings.Split(item, subFieldSep)
		if len(parts) != 6 {
			return nil, fmt.Errorf("exercise %d: expected 6 fields, got %d", i+1, len(parts))
		}
		sets, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("exercise %d sets: %w", i+1, err)
		}
		reps, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("exercise %d reps: %w", i+1, err)
		}
		weight, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("exercise %d weight: %w", i+1, err)
		}
		duration, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("exercise %d duration: %w", i+1, err)
		}
		exercises = append(exercises, domain.Exercise{
			Name:            unescape(parts[0]),
			Sets:            sets,
			Reps:            reps,
			WeightKg:        weight,
			DurationSeconds: duration,
			Instructions:    unescape(parts[5]),
		})
	}
	return exercises, nil
}

// --- SubscriptionPlan ---

func encodePlan(p domain.SubscriptionPlan) []string {
	return []string{
		encText(p.PlanID), encText(p.PlanName), encOptText(p.Description), encFloat(p.Price),
		encInt(p.DurationMonths), string(p.PlanType), encBool(p.IsActive), encText(p.Benefits),
		encInt(p.MaxWorkoutsPerWeek), encBool(p.IncludesPersonalTrainer),
	}
}

func decodePlan(r *rowReader) domain.SubscriptionPlan {
	p := domain.SubscriptionPlan{}
	p.PlanID = r.requiredText()
	p.PlanName = r.text()
	p.Description = r.optText()
	p.Price = r.float()
	p.DurationMonths = r.int()
	cell, col := r.raw()
	if r.err == nil {
		pt, err := domain.ParsePlanType(cell)
		if err != nil {
			r.fail(col, err)
		}
		p.PlanType = pt
	}
	p.IsActive = r.bool()
	p.Benefits = r.text()
	p.MaxWorkoutsPerWeek = r.int()
	p.IncludesPersonalTrainer = r.bool()
	return p
}
