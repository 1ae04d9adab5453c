package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/metrics"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/storage"
	"context"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	missedWorkoutNote = "No show for scheduled workout"
	topAttendingLimit = 5
)

// MemberAttendanceStats summarises one member's visits over a trailing window.
type MemberAttendanceStats struct {
	MemberID               string  `json:"memberId"`
	Days                   int     `json:"days"`
	AttendedDays           int     `json:"attendedDays"`
	MissedDays             int     `json:"missedDays"`
	LateDays               int     `json:"lateDays"`
	AttendancePercentage   float64 `json:"attendancePercentage"`
	AverageWorkoutDuration float64 `json:"averageWorkoutDuration"` // minutes
}

// GymAttendanceStats summarises all visits in a date range.
type GymAttendanceStats struct {
	StartDate              time.Time `json:"startDate"`
	EndDate                time.Time `json:"endDate"`
	Days                   int       `json:"days"`
	TotalVisits            int       `json:"totalVisits"`
	UniqueMembers          int       `json:"uniqueMembers"`
	AverageVisitsPerDay    float64   `json:"averageVisitsPerDay"`
	AverageWorkoutDuration float64   `json:"averageWorkoutDuration"` // minutes
	PeakHour               *int      `json:"peakHour"`               // nil when nobody checked in
	PeakHourVisits         int       `json:"peakHourVisits"`
}

// MemberVisits is one entry in the top attending members list.
type MemberVisits struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Visits     int    `json:"visits"`
}

// AttendanceSummary breaks down a date range by status.
type AttendanceSummary struct {
	StartDate     time.Time      `json:"startDate"`
	EndDate       time.Time      `json:"endDate"`
	TotalRecords  int            `json:"totalRecords"`
	CheckedIn     int            `json:"checkedIn"`
	CheckedOut    int            `json:"checkedOut"`
	Late          int            `json:"late"`
	Missed        int            `json:"missed"`
	TopAttendance []MemberVisits `json:"topAttendingMembers"`
}

// AttendanceManager owns attendance records.
type AttendanceManager interface {
	CheckInMember(ctx context.Context, memberID string) (*domain.Attendance, error)
	CheckOutMember(ctx context.Context, memberID string) (*domain.Attendance, error)
	MarkMemberLate(ctx context.Context, memberID string, scheduledTime time.Time) (*domain.Attendance, error)
	MarkMemberMissed(ctx context.Context, memberID, scheduleID string) (*domain.Attendance, error)

	GetAttendanceByMember(ctx context.Context, memberID string) ([]domain.Attendance, error)
	GetAttendanceByDateRange(ctx context.Context, start, end time.Time) ([]domain.Attendance, error)
	GetTodayAttendance(ctx context.Context) ([]domain.Attendance, error)
	GetAllAttendanceRecords(ctx context.Context) ([]domain.Attendance, error)

	GetMemberAttendanceStats(ctx context.Context, memberID string, days int) (*MemberAttendanceStats, error)
	GetGymAttendanceStats(ctx context.Context, start, end time.Time) (*GymAttendanceStats, error)
	GetAttendanceSummary(ctx context.Context, start, end time.Time) (*AttendanceSummary, error)
	ExportAttendanceReport(ctx context.Context, start, end time.Time, name string) (string, error)
}

// attendanceManager implements the AttendanceManager interface.
type attendanceManager struct {
	mu         sync.Mutex
	records    repository.Collection[domain.Attendance]
	users      UserManager
	reports    storage.ReportStorage
	now        func() time.Time
	generateID func() string
}

// NewAttendanceManager creates a new instance of attendanceManager. A nil now
// uses time.Now; reports may be nil when exports are not needed.
func NewAttendanceManager(records repository.Collection[domain.Attendance], users UserManager, reports storage.ReportStorage, now func() time.Time) AttendanceManager {
	now = wholeSeconds(now)
	return &attendanceManager{
		records:    records,
		users:      users,
		reports:    reports,
		now:        now,
		generateID: func() string { return "ATT-" + uuid.NewString() },
	}
}

// --- State transitions ---

// CheckInMember opens today's visit for an active, unexpired member.
func (s *attendanceManager) CheckInMember(ctx context.Context, memberID string) (record *domain.Attendance, err error) {
	defer func() { metrics.ObserveAttendance("check_in", resultLabel(err)) }()

	member, err := s.users.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !member.IsActive {
		return nil, ErrMemberInactive
	}
	if member.IsMembershipExpired(now) {
		return nil, ErrMembershipExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := todayVisit(records, memberID, now); idx >= 0 {
		if records[idx].IsOpen() {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, ErrAlreadyVisitedToday
	}

	a := domain.Attendance{
		AttendanceID: s.generateID(),
		MemberID:     memberID,
		MemberName:   member.Name,
		Date:         domain.DateOf(now),
	}
	a.CheckIn(now)
	if err = s.records.Save(ctx, append(records, a)); err != nil {
		return nil, err
	}
	log.Printf("INFO: Member %s checked in at %s", memberID, now.Format("15:04"))
	return &a, nil
}

// CheckOutMember closes today's open visit. A second call fails without
// touching the stored check-out time.
func (s *attendanceManager) CheckOutMember(ctx context.Context, memberID string) (record *domain.Attendance, err error) {
	defer func() { metrics.ObserveAttendance("check_out", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := todayVisit(records, memberID, now)
	if idx < 0 {
		return nil, ErrNoCheckInToday
	}
	a := &records[idx]
	if a.Status == domain.AttendanceCheckedOut || a.CheckOutTime != nil {
		return nil, ErrAlreadyCheckedOut
	}
	a.CheckOut(now)
	if err = s.records.Save(ctx, records); err != nil {
		return nil, err
	}
	log.Printf("INFO: Member %s checked out (%d minutes)", memberID, a.WorkoutDurationMinutes())
	return a, nil
}

// MarkMemberLate flags today's open visit as LATE when the check-in came more
// than the grace period after scheduledTime.
func (s *attendanceManager) MarkMemberLate(ctx context.Context, memberID string, scheduledTime time.Time) (record *domain.Attendance, err error) {
	defer func() { metrics.ObserveAttendance("late", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := todayVisit(records, memberID, s.now())
	if idx < 0 {
		return nil, ErrNoCheckInToday
	}
	a := &records[idx]
	if a.Status == domain.AttendanceLate {
		return a, nil
	}
	if !a.IsOpen() {
		return nil, ErrAlreadyCheckedOut
	}
	if !a.IsLate(scheduledTime) {
		return nil, ErrNotLate
	}
	a.Status = domain.AttendanceLate
	if err = s.records.Save(ctx, records); err != nil {
		return nil, err
	}
	return a, nil
}

// MarkMemberMissed records a no-show for today.
func (s *attendanceManager) MarkMemberMissed(ctx context.Context, memberID, scheduleID string) (record *domain.Attendance, err error) {
	defer func() { metrics.ObserveAttendance("missed", resultLabel(err)) }()

	member, err := s.users.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	note := missedWorkoutNote
	a := domain.Attendance{
		AttendanceID: s.generateID(),
		MemberID:     memberID,
		MemberName:   member.Name,
		Date:         domain.DateOf(s.now()),
		Status:       domain.AttendanceMissed,
		Notes:        &note,
	}
	if scheduleID != "" {
		id := scheduleID
		a.WorkoutScheduleID = &id
	}
	if err = s.records.Save(ctx, append(records, a)); err != nil {
		return nil, err
	}
	return &a, nil
}

// todayVisit returns the index of the member's non-missed record dated today, or -1.
func todayVisit(records []domain.Attendance, memberID string, now time.Time) int {
	for i := range records {
		r := &records[i]
		if r.MemberID == memberID && r.Status != domain.AttendanceMissed && domain.SameDay(r.Date, now) {
			return i
		}
	}
	return -1
}

// --- Queries ---

// GetAttendanceByMember returns the member's records, newest first.
func (s *attendanceManager) GetAttendanceByMember(ctx context.Context, memberID string) ([]domain.Attendance, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Attendance{}
	for _, r := range records {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// GetAttendanceByDateRange returns records dated within [start, end], newest first.
func (s *attendanceManager) GetAttendanceByDateRange(ctx context.Context, start, end time.Time) ([]domain.Attendance, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := inDateRange(records, start, end)
	sortNewestFirst(out)
	return out, nil
}

// GetTodayAttendance returns today's records ordered by check-in time, records
// without a check-in last.
func (s *attendanceManager) GetTodayAttendance(ctx context.Context) ([]domain.Attendance, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []domain.Attendance{}
	for _, r := range records {
		if domain.SameDay(r.Date, now) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CheckInTime, out[j].CheckInTime
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Before(*b)
	})
	return out, nil
}

func (s *attendanceManager) GetAllAttendanceRecords(ctx context.Context) ([]domain.Attendance, error) {
	return s.records.Load(ctx)
}

func inDateRange(records []domain.Attendance, start, end time.Time) []domain.Attendance {
	from, to := domain.DateOf(start), domain.DateOf(end)
	out := []domain.Attendance{}
	for _, r := range records {
		d := domain.DateOf(r.Date)
		if !d.Before(from) && !d.After(to) {
			out = append(out, r)
		}
	}
	return out
}

func sortNewestFirst(records []domain.Attendance) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// --- Statistics ---

// GetMemberAttendanceStats covers the last days calendar days, today included.
// The percentage divides by days, not by the number of records.
func (s *attendanceManager) GetMemberAttendanceStats(ctx context.Context, memberID string, days int) (*MemberAttendanceStats, error) {
	if days <= 0 {
		return nil, fieldError("days", "Days must be a positive number")
	}
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}

	today := domain.DateOf(s.now())
	start := today.AddDate(0, 0, -(days - 1))
	stats := &MemberAttendanceStats{MemberID: memberID, Days: days}
	var totalMinutes int64
	var timed int
	for _, r := range inDateRange(records, start, today) {
		if r.MemberID != memberID {
			continue
		}
		switch {
		case r.Status == domain.AttendanceMissed:
			stats.MissedDays++
		case r.Status.Attended():
			stats.AttendedDays++
			if r.Status == domain.AttendanceLate {
				stats.LateDays++
			}
		}
		if r.HasDuration() {
			totalMinutes += r.WorkoutDurationMinutes()
			timed++
		}
	}
	stats.AttendancePercentage = float64(stats.AttendedDays) / float64(days) * 100
	if timed > 0 {
		stats.AverageWorkoutDuration = float64(totalMinutes) / float64(timed)
	}
	return stats, nil
}

// GetGymAttendanceStats aggregates every record dated within [start, end].
// The peak hour is the check-in hour with the most visits; ties go to the hour
// seen first in stored order.
func (s *attendanceManager) GetGymAttendanceStats(ctx context.Context, start, end time.Time) (*GymAttendanceStats, error) {
	from, to := domain.DateOf(start), domain.DateOf(end)
	if to.Before(from) {
		return nil, fieldError("endDate", "End date must not be before start date")
	}
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	return gymStats(inDateRange(records, from, to), from, to), nil
}

func gymStats(records []domain.Attendance, from, to time.Time) *GymAttendanceStats {
	stats := &GymAttendanceStats{
		StartDate:   from,
		EndDate:     to,
		Days:        domain.DaysBetween(from, to) + 1,
		TotalVisits: len(records),
	}

	members := make(map[string]struct{})
	hourCounts := make(map[int]int)
	var hourOrder []int
	var totalMinutes int64
	var timed int
	for _, r := range records {
		members[r.MemberID] = struct{}{}
		if r.HasDuration() {
			totalMinutes += r.WorkoutDurationMinutes()
			timed++
		}
		if r.CheckInTime != nil {
			h := r.CheckInTime.Hour()
			if _, seen := hourCounts[h]; !seen {
				hourOrder = append(hourOrder, h)
			}
			hourCounts[h]++
		}
	}

	stats.UniqueMembers = len(members)
	stats.AverageVisitsPerDay = float64(stats.TotalVisits) / float64(stats.Days)
	if timed > 0 {
		stats.AverageWorkoutDuration = float64(totalMinutes) / float64(timed)
	}
	for _, h := range hourOrder {
		if hourCounts[h] > stats.PeakHourVisits {
			hour := h
			stats.PeakHour = &hour
			stats.PeakHourVisits = hourCounts[h]
		}
	}
	return stats
}

// GetAttendanceSummary counts statuses in [start, end] and lists the five
// members with the most non-missed visits.
func (s *attendanceManager) GetAttendanceSummary(ctx context.Context, start, end time.Time) (*AttendanceSummary, error) {
	from, to := domain.DateOf(start), domain.DateOf(end)
	if to.Before(from) {
		return nil, fieldError("endDate", "End date must not be before start date")
	}
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.users.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Name
	}

	period := inDateRange(records, from, to)
	summary := &AttendanceSummary{StartDate: from, EndDate: to, TotalRecords: len(period), TopAttendance: []MemberVisits{}}
	visits := make(map[string]int)
	var order []string
	for _, r := range period {
		switch r.Status {
		case domain.AttendanceCheckedIn:
			summary.CheckedIn++
		case domain.AttendanceCheckedOut:
			summary.CheckedOut++
		case domain.AttendanceLate:
			summary.Late++
		case domain.AttendanceMissed:
			summary.Missed++
			continue
		}
		if _, seen := visits[r.MemberID]; !seen {
			order = append(order, r.MemberID)
		}
		visits[r.MemberID]++
	}

	for _, id := range order {
		name, ok := names[id]
		if !ok {
			name = id
		}
		summary.TopAttendance = append(summary.TopAttendance, MemberVisits{MemberID: id, MemberName: name, Visits: visits[id]})
	}
	sort.SliceStable(summary.TopAttendance, func(i, j int) bool {
		return summary.TopAttendance[i].Visits > summary.TopAttendance[j].Visits
	})
	if len(summary.TopAttendance) > topAttendingLimit {
		summary.TopAttendance = summary.TopAttendance[:topAttendingLimit]
	}
	return summary, nil
}

// --- Export ---

var attendanceExportHeaders = []string{"Date", "Member ID", "Member Name", "Check In", "Check Out", "Duration (min)", "Status", "Notes"}

// ExportAttendanceReport writes the records in [start, end] to report storage.
func (s *attendanceManager) ExportAttendanceReport(ctx context.Context, start, end time.Time, name string) (string, error) {
	if s.reports == nil {
		return "", ErrReportsDisabled
	}
	records, err := s.GetAttendanceByDateRange(ctx, start, end)
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format("2006-01-02"),
			r.MemberID,
			r.MemberName,
			formatOptTime(r.CheckInTime),
			formatOptTime(r.CheckOutTime),
			strconv.FormatInt(r.WorkoutDurationMinutes(), 10),
			string(r.Status),
			derefText(r.Notes),
		})
	}
	loc, err := s.reports.PutReport(ctx, name, attendanceExportHeaders, rows)
	if err != nil {
		return "", err
	}
	metrics.ObserveReport("attendance_export")
	return loc, nil
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}

func derefText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
