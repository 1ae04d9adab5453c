package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/metrics"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/storage"
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTopPerformers is the performance report size used by the dashboard.
	DefaultTopPerformers = 10
	expiringSoonDays     = 30
	dashboardWindowDays  = 30
	dashboardUpcomingCap = 5
)

// --- Report Types ---

type RevenueReport struct {
	StartDate               time.Time                         `json:"startDate"`
	EndDate                 time.Time                         `json:"endDate"`
	ReportPeriod            string                            `json:"reportPeriod"`
	TotalRevenue            float64                           `json:"totalRevenue"`
	RevenueByType           map[domain.MembershipType]float64 `json:"revenueByMembershipType"`
	MembersByType           map[domain.MembershipType]int     `json:"membersByType"`
	TotalActiveMembers      int                               `json:"totalActiveMembers"`
	AverageRevenuePerMember float64                           `json:"averageRevenuePerMember"`
	ProjectedMonthlyRevenue float64                           `json:"projectedMonthlyRevenue"`
}

type MembershipReport struct {
	TotalMembers              int                           `json:"totalMembers"`
	ActiveMembers             int                           `json:"activeMembers"`
	ExpiredMembers            int                           `json:"expiredMembers"`
	InactiveMembers           int                           `json:"inactiveMembers"`
	TypeBreakdown             map[domain.MembershipType]int `json:"membershipTypeBreakdown"`
	MembersExpiringSoon       int                           `json:"membersExpiringSoon"`
	AverageMembershipDuration float64                       `json:"averageMembershipDuration"` // days
}

type AttendanceReport struct {
	Stats                       *GymAttendanceStats `json:"stats"`
	Summary                     *AttendanceSummary  `json:"summary"`
	AverageAttendancePercentage float64             `json:"averageAttendancePercentage"`
}

type MemberPerformance struct {
	UserID               string  `json:"userId"`
	Name                 string  `json:"name"`
	ProgressScore        float64 `json:"progressScore"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	TotalWorkouts        int     `json:"totalWorkouts"`
	AttendedWorkouts     int     `json:"attendedWorkouts"`
}

type PerformanceReport struct {
	TopPerformers          []MemberPerformance `json:"topPerformingMembers"`
	AverageProgressScore   float64             `json:"averageProgressScore"`
	TotalWorkoutsCompleted int                 `json:"totalWorkoutsCompleted"`
	TotalWorkoutsScheduled int                 `json:"totalWorkoutsScheduled"`
	OverallCompletionRate  float64             `json:"overallWorkoutCompletionRate"`
}

type TrainerPerformance struct {
	UserID                     string  `json:"userId"`
	Name                       string  `json:"name"`
	Specialization             string  `json:"specialization"`
	ExperienceYears            int     `json:"experienceYears"`
	AssignedMembers            int     `json:"assignedMembers"`
	AverageMemberProgressScore float64 `json:"averageMemberProgressScore"`
	TotalSchedulesManaged      int     `json:"totalSchedulesManaged"`
	ScheduleCompletionRate     float64 `json:"scheduleCompletionRate"`
}

type TrainerPerformanceReport struct {
	Trainers                       []TrainerPerformance `json:"trainerPerformanceDetails"`
	TotalActiveTrainers            int                  `json:"totalActiveTrainers"`
	AverageTrainerPerformanceScore float64              `json:"averageTrainerPerformanceScore"`
}

// Dashboard is the at-a-glance summary over the last 30 days.
type Dashboard struct {
	Date                    time.Time `json:"date"`
	TotalMembers            int       `json:"totalMembers"`
	ActiveMembers           int       `json:"activeMembers"`
	ActiveTrainers          int       `json:"activeTrainers"`
	TodayAttendance         int       `json:"todayAttendance"`
	ProjectedMonthlyRevenue float64   `json:"monthlyRevenue"`
	TotalRevenue            float64   `json:"totalRevenue"`
	AverageProgressScore    float64   `json:"averageProgressScore"`
	WorkoutCompletionRate   float64   `json:"workoutCompletionRate"`
	UpcomingWorkouts        int       `json:"upcomingWorkouts"`
	MembershipsExpiringSoon int       `json:"membershipsExpiringSoon"`
}

// NewPlanInput describes a catalog entry to add.
type NewPlanInput struct {
	PlanID         string
	PlanName       string
	Description    string
	Price          float64
	DurationMonths int
	PlanType       string
}

// ReportManager aggregates the other managers into reports and owns the plan catalog.
type ReportManager interface {
	GenerateRevenueReport(ctx context.Context, start, end time.Time) (*RevenueReport, error)
	GenerateMembershipReport(ctx context.Context) (*MembershipReport, error)
	GenerateAttendanceReport(ctx context.Context, start, end time.Time) (*AttendanceReport, error)
	GeneratePerformanceReport(ctx context.Context, topN int) (*PerformanceReport, error)
	GenerateTrainerPerformanceReport(ctx context.Context) (*TrainerPerformanceReport, error)
	GenerateDashboard(ctx context.Context) (*Dashboard, error)

	ExportRevenueReport(ctx context.Context, start, end time.Time, name string) (string, error)
	ExportMembershipReport(ctx context.Context, name string) (string, error)

	AddSubscriptionPlan(ctx context.Context, in NewPlanInput) (*domain.SubscriptionPlan, error)
	GetSubscriptionPlans(ctx context.Context) ([]domain.SubscriptionPlan, error)
	GetActiveSubscriptionPlans(ctx context.Context) ([]domain.SubscriptionPlan, error)
}

// reportManager implements the ReportManager interface. It only reads member,
// attendance and schedule state; the plan catalog is the one collection it writes.
type reportManager struct {
	mu         sync.Mutex
	plans      repository.Collection[domain.SubscriptionPlan]
	users      UserManager
	attendance AttendanceManager
	workouts   WorkoutManager
	reports    storage.ReportStorage
	now        func() time.Time
}

// NewReportManager creates a new instance of reportManager. A nil now uses
// time.Now; reports may be nil when exports are not needed.
func NewReportManager(plans repository.Collection[domain.SubscriptionPlan], users UserManager, attendance AttendanceManager, workouts WorkoutManager, reports storage.ReportStorage, now func() time.Time) ReportManager {
	now = wholeSeconds(now)
	return &reportManager{
		plans:      plans,
		users:      users,
		attendance: attendance,
		workouts:   workouts,
		reports:    reports,
		now:        now,
	}
}

// --- Revenue ---

// GenerateRevenueReport credits each active member whose membership overlaps
// [start, end] with one period price. ProjectedMonthlyRevenue is a separate
// run-rate over all active members using the monthly-equivalent prices.
func (s *reportManager) GenerateRevenueReport(ctx context.Context, start, end time.Time) (*RevenueReport, error) {
	from, to := domain.DateOf(start), domain.DateOf(end)
	if to.Before(from) {
		return nil, fieldError("endDate", "End date must not be before start date")
	}
	active, err := s.users.GetAllActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{
		StartDate:          from,
		EndDate:            to,
		ReportPeriod:       from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		RevenueByType:      make(map[domain.MembershipType]float64),
		MembersByType:      make(map[domain.MembershipType]int),
		TotalActiveMembers: len(active),
	}
	for i := range active {
		m := &active[i]
		revenue := memberRevenue(m, from, to)
		report.TotalRevenue += revenue
		report.RevenueByType[m.MembershipType] += revenue
		report.MembersByType[m.MembershipType]++
		report.ProjectedMonthlyRevenue += m.MembershipType.MonthlyPrice()
	}
	if len(active) > 0 {
		report.AverageRevenuePerMember = report.TotalRevenue / float64(len(active))
	}

	metrics.ObserveReport("revenue")
	return report, nil
}

func memberRevenue(m *domain.Member, from, to time.Time) float64 {
	if m.MembershipEndDate.Before(from) || m.MembershipStartDate.After(to) {
		return 0
	}
	return m.MembershipType.PeriodPrice()
}

// --- Membership ---

func (s *reportManager) GenerateMembershipReport(ctx context.Context) (*MembershipReport, error) {
	all, err := s.users.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiringBefore := domain.DateOf(now).AddDate(0, 0, expiringSoonDays)

	report := &MembershipReport{
		TotalMembers:  len(all),
		TypeBreakdown: make(map[domain.MembershipType]int),
	}
	var totalDays, dated int
	for i := range all {
		m := &all[i]
		if m.IsMembershipExpired(now) {
			report.ExpiredMembers++
		}
		if !m.MembershipStartDate.IsZero() && !m.MembershipEndDate.IsZero() {
			totalDays += domain.DaysBetween(m.MembershipStartDate, m.MembershipEndDate)
			dated++
		}
		if !m.IsActive {
			continue
		}
		report.ActiveMembers++
		report.TypeBreakdown[m.MembershipType]++
		if m.MembershipEndDate.Before(expiringBefore) {
			report.MembersExpiringSoon++
		}
	}
	report.InactiveMembers = report.TotalMembers - report.ActiveMembers
	if dated > 0 {
		report.AverageMembershipDuration = float64(totalDays) / float64(dated)
	}

	metrics.ObserveReport("membership")
	return report, nil
}

// --- Attendance ---

// GenerateAttendanceReport combines gym stats and the status summary for
// [start, end] with the average attendance percentage of active members that
// have attended at least once.
func (s *reportManager) GenerateAttendanceReport(ctx context.Context, start, end time.Time) (*AttendanceReport, error) {
	stats, err := s.attendance.GetGymAttendanceStats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	summary, err := s.attendance.GetAttendanceSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	active, err := s.users.GetAllActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	report := &AttendanceReport{Stats: stats, Summary: summary}
	var sum float64
	var n int
	for i := range active {
		if pct := active[i].AttendancePercentage(); pct > 0 {
			sum += pct
			n++
		}
	}
	if n > 0 {
		report.AverageAttendancePercentage = sum / float64(n)
	}

	metrics.ObserveReport("attendance")
	return report, nil
}

// --- Performance ---

func (s *reportManager) GeneratePerformanceReport(ctx context.Context, topN int) (*PerformanceReport, error) {
	top, err := s.workouts.GetTopPerformingMembers(ctx, topN)
	if err != nil {
		return nil, err
	}
	active, err := s.users.GetAllActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{TopPerformers: make([]MemberPerformance, 0, len(top))}
	for i := range top {
		m := &top[i]
		report.TopPerformers = append(report.TopPerformers, MemberPerformance{
			UserID:               m.UserID,
			Name:                 m.Name,
			ProgressScore:        m.ProgressScore,
			AttendancePercentage: m.AttendancePercentage(),
			TotalWorkouts:        m.TotalWorkouts,
			AttendedWorkouts:     m.AttendedWorkouts,
		})
	}

	var scoreSum float64
	for i := range active {
		scoreSum += active[i].ProgressScore
		report.TotalWorkoutsCompleted += active[i].AttendedWorkouts
		report.TotalWorkoutsScheduled += active[i].TotalWorkouts
	}
	if len(active) > 0 {
		report.AverageProgressScore = scoreSum / float64(len(active))
	}
	if report.TotalWorkoutsScheduled > 0 {
		report.OverallCompletionRate = float64(report.TotalWorkoutsCompleted) / float64(report.TotalWorkoutsScheduled) * 100
	}

	metrics.ObserveReport("performance")
	return report, nil
}

// GenerateTrainerPerformanceReport ranks active trainers by the average progress
// score of their assigned members. Assigned ids that no longer resolve count as 0.
func (s *reportManager) GenerateTrainerPerformanceReport(ctx context.Context) (*TrainerPerformanceReport, error) {
	trainers, err := s.users.GetAllActiveTrainers(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.users.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := s.workouts.GetAllWorkoutSchedules(ctx)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(members))
	for _, m := range members {
		scores[m.UserID] = m.ProgressScore
	}
	type scheduleCount struct{ total, completed int }
	counts := make(map[string]*scheduleCount)
	for _, ws := range schedules {
		c, ok := counts[ws.TrainerID]
		if !ok {
			c = &scheduleCount{}
			counts[ws.TrainerID] = c
		}
		c.total++
		if ws.Status == domain.ScheduleCompleted {
			c.completed++
		}
	}

	report := &TrainerPerformanceReport{
		Trainers:            make([]TrainerPerformance, 0, len(trainers)),
		TotalActiveTrainers: len(trainers),
	}
	for _, t := range trainers {
		tp := TrainerPerformance{
			UserID:          t.UserID,
			Name:            t.Name,
			Specialization:  t.Specialization,
			ExperienceYears: t.ExperienceYears,
			AssignedMembers: len(t.AssignedMemberIDs),
		}
		if len(t.AssignedMemberIDs) > 0 {
			var sum float64
			for _, id := range t.AssignedMemberIDs {
				sum += scores[id]
			}
			tp.AverageMemberProgressScore = sum / float64(len(t.AssignedMemberIDs))
		}
		if c, ok := counts[t.UserID]; ok {
			tp.TotalSchedulesManaged = c.total
			tp.ScheduleCompletionRate = float64(c.completed) / float64(c.total) * 100
		}
		report.Trainers = append(report.Trainers, tp)
	}
	sort.SliceStable(report.Trainers, func(i, j int) bool {
		return report.Trainers[i].AverageMemberProgressScore > report.Trainers[j].AverageMemberProgressScore
	})

	if len(report.Trainers) > 0 {
		var sum float64
		for _, tp := range report.Trainers {
			sum += tp.AverageMemberProgressScore
		}
		report.AverageTrainerPerformanceScore = sum / float64(len(report.Trainers))
	}

	metrics.ObserveReport("trainer_performance")
	return report, nil
}

// --- Dashboard ---

func (s *reportManager) GenerateDashboard(ctx context.Context) (*Dashboard, error) {
	today := domain.DateOf(s.now())

	all, err := s.users.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	trainers, err := s.users.GetAllActiveTrainers(ctx)
	if err != nil {
		return nil, err
	}
	todays, err := s.attendance.GetTodayAttendance(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.GenerateRevenueReport(ctx, today.AddDate(0, 0, -dashboardWindowDays), today)
	if err != nil {
		return nil, err
	}
	performance, err := s.GeneratePerformanceReport(ctx, DefaultTopPerformers)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.workouts.GetUpcomingSchedules(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Date:                    today,
		TotalMembers:            len(all),
		ActiveMembers:           revenue.TotalActiveMembers,
		ActiveTrainers:          len(trainers),
		TodayAttendance:         len(todays),
		ProjectedMonthlyRevenue: revenue.ProjectedMonthlyRevenue,
		TotalRevenue:            revenue.TotalRevenue,
		AverageProgressScore:    performance.AverageProgressScore,
		WorkoutCompletionRate:   performance.OverallCompletionRate,
		UpcomingWorkouts:        min(dashboardUpcomingCap, len(upcoming)),
	}
	expiringBefore := today.AddDate(0, 0, expiringSoonDays)
	for i := range all {
		if all[i].IsActive && all[i].MembershipEndDate.Before(expiringBefore) {
			d.MembershipsExpiringSoon++
		}
	}

	metrics.ObserveReport("dashboard")
	return d, nil
}

// --- Export ---

var metricValueHeaders = []string{"Metric", "Value"}

func (s *reportManager) ExportRevenueReport(ctx context.Context, start, end time.Time, name string) (string, error) {
	if s.reports == nil {
		return "", ErrReportsDisabled
	}
	r, err := s.GenerateRevenueReport(ctx, start, end)
	if err != nil {
		return "", err
	}
	rows := [][]string{
		{"Report Period", r.ReportPeriod},
		{"Total Revenue", fmt.Sprintf("%.2f", r.TotalRevenue)},
		{"Total Active Members", strconv.Itoa(r.TotalActiveMembers)},
		{"Average Revenue Per Member", fmt.Sprintf("%.2f", r.AverageRevenuePerMember)},
		{"Projected Monthly Revenue", fmt.Sprintf("%.2f", r.ProjectedMonthlyRevenue)},
	}
	for _, t := range domain.MembershipTypes {
		rows = append(rows, []string{"Revenue (" + string(t) + ")", fmt.Sprintf("%.2f", r.RevenueByType[t])})
	}
	return s.put(ctx, "revenue_export", name, rows)
}

func (s *reportManager) ExportMembershipReport(ctx context.Context, name string) (string, error) {
	if s.reports == nil {
		return "", ErrReportsDisabled
	}
	r, err := s.GenerateMembershipReport(ctx)
	if err != nil {
		return "", err
	}
	rows := [][]string{
		{"Total Members", strconv.Itoa(r.TotalMembers)},
		{"Active Members", strconv.Itoa(r.ActiveMembers)},
		{"Expired Members", strconv.Itoa(r.ExpiredMembers)},
		{"Members Expiring Soon", strconv.Itoa(r.MembersExpiringSoon)},
		{"Average Membership Duration (days)", fmt.Sprintf("%.1f", r.AverageMembershipDuration)},
	}
	return s.put(ctx, "membership_export", name, rows)
}

func (s *reportManager) put(ctx context.Context, report, name string, rows [][]string) (string, error) {
	loc, err := s.reports.PutReport(ctx, name, metricValueHeaders, rows)
	if err != nil {
		log.Printf("ERROR: Failed to export %s report %q: %v", report, name, err)
		return "", err
	}
	metrics.ObserveReport(report)
	return loc, nil
}

// --- Subscription plans ---

// GetSubscriptionPlans returns the catalog, seeding the default plans when
// nothing has been stored yet.
func (s *reportManager) GetSubscriptionPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPlans(ctx)
}

func (s *reportManager) loadPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	plans, err := s.plans.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		return plans, nil
	}
	plans = domain.DefaultSubscriptionPlans()
	if err := s.plans.Save(ctx, plans); err != nil {
		return nil, err
	}
	log.Printf("INFO: Seeded %d default subscription plans", len(plans))
	return plans, nil
}

func (s *reportManager) GetActiveSubscriptionPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	plans, err := s.GetSubscriptionPlans(ctx)
	if err != nil {
		return nil, err
	}
	active := []domain.SubscriptionPlan{}
	for _, p := range plans {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *reportManager) AddSubscriptionPlan(ctx context.Context, in NewPlanInput) (*domain.SubscriptionPlan, error) {
	v := &ValidationError{}
	planID := strings.TrimSpace(in.PlanID)
	if planID == "" {
		v.add("planId", msgEmptyField)
	}
	if !isNotEmpty(in.PlanName) {
		v.add("planName", msgEmptyField)
	}
	if in.Price < 0 || math.IsNaN(in.Price) {
		v.add("price", "Price must not be negative")
	}
	if in.DurationMonths <= 0 {
		v.add("durationMonths", "Duration must be a positive number")
	}
	planType, err := domain.ParsePlanType(strings.ToUpper(strings.TrimSpace(in.PlanType)))
	if err != nil {
		v.add("planType", "Plan type must be BASIC, STANDARD, PREMIUM or UNLIMITED")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.loadPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.PlanID == planID {
			return nil, ErrPlanIDTaken
		}
	}
	plan := domain.NewSubscriptionPlan(planID, strings.TrimSpace(in.PlanName), in.Price, in.DurationMonths, planType)
	if isNotEmpty(in.Description) {
		d := in.Description
		plan.Description = &d
	}
	if err := s.plans.Save(ctx, append(plans, plan)); err != nil {
		return nil, err
	}
	log.Printf("INFO: Subscription plan %s added", planID)
	return &plan, nil
}
