package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/storage"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newReportEnv sets up, on 2024-03-10:
//   - MEM1, monthly since today (until 2024-04-10), assigned to TRN1
//   - YRL1, yearly from 2022-01-10 to 2023-01-10, assigned to TRN2
//   - schedule SCH1 for MEM1 by TRN1, completed (MEM1 progress 80)
func newReportEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()
	today := env.clock.Now()

	env.clock.t = time.Date(2022, time.January, 10, 9, 0, 0, 0, time.Local)
	env.addMember(t, "YRL1", "yearly")
	env.clock.t = today
	env.addMember(t, "MEM1", "monthly")
	env.addTrainer(t, "TRN1")
	env.addTrainer(t, "TRN2")
	if err := env.users.AssignTrainerToMember(ctx, "TRN1", "MEM1"); err != nil {
		t.Fatalf("assign TRN1: %v", err)
	}
	if err := env.users.AssignTrainerToMember(ctx, "TRN2", "YRL1"); err != nil {
		t.Fatalf("assign TRN2: %v", err)
	}
	if _, err := env.workouts.CreateWorkoutSchedule(ctx, "SCH1", "MEM1", "TRN1", "Intervals"); err != nil {
		t.Fatalf("CreateWorkoutSchedule: %v", err)
	}
	if _, err := env.workouts.CompleteWorkout(ctx, "SCH1", "done"); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	return env
}

func TestRevenueReportCountsOnlyOverlappingMemberships(t *testing.T) {
	env := newReportEnv(t)
	end := domain.DateOf(env.clock.Now())
	start := end.AddDate(0, 0, -29)

	r, err := env.reports.GenerateRevenueReport(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GenerateRevenueReport: %v", err)
	}
	if r.TotalRevenue != 50 {
		t.Errorf("totalRevenue = %v, want 50", r.TotalRevenue)
	}
	if r.RevenueByType[domain.MembershipMonthly] != 50 || r.RevenueByType[domain.MembershipYearly] != 0 {
		t.Errorf("revenue by type = %v", r.RevenueByType)
	}
	if r.MembersByType[domain.MembershipMonthly] != 1 || r.MembersByType[domain.MembershipYearly] != 1 {
		t.Errorf("members by type = %v", r.MembersByType)
	}
	// run-rate covers every active member: 50 + 40
	if r.ProjectedMonthlyRevenue != 90 {
		t.Errorf("projectedMonthlyRevenue = %v, want 90", r.ProjectedMonthlyRevenue)
	}
	if r.TotalActiveMembers != 2 || r.AverageRevenuePerMember != 25 {
		t.Errorf("active = %d, average = %v", r.TotalActiveMembers, r.AverageRevenuePerMember)
	}
	if r.ReportPeriod != "2024-02-10 to 2024-03-10" {
		t.Errorf("reportPeriod = %q", r.ReportPeriod)
	}

	if _, err := env.reports.GenerateRevenueReport(context.Background(), end, start); ErrorKind(err) != KindValidation {
		t.Errorf("reversed range must be a validation error, got %v", err)
	}
}

func TestMembershipReport(t *testing.T) {
	env := newReportEnv(t)
	r, err := env.reports.GenerateMembershipReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateMembershipReport: %v", err)
	}
	if r.TotalMembers != 2 || r.ActiveMembers != 2 || r.ExpiredMembers != 1 || r.InactiveMembers != 0 {
		t.Errorf("unexpected counts %+v", r)
	}
	// MEM1 ends 2024-04-10, which is not before 2024-04-09
	if r.MembersExpiringSoon != 1 {
		t.Errorf("membersExpiringSoon = %d, want 1", r.MembersExpiringSoon)
	}
	// (31 + 365) / 2
	if r.AverageMembershipDuration != 198 {
		t.Errorf("averageMembershipDuration = %v, want 198", r.AverageMembershipDuration)
	}

	if err := env.users.DeleteMember(context.Background(), "YRL1"); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	r, err = env.reports.GenerateMembershipReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateMembershipReport: %v", err)
	}
	if r.InactiveMembers != 1 || r.TypeBreakdown[domain.MembershipYearly] != 0 {
		t.Errorf("after deleting YRL1: %+v", r)
	}
}

func TestPerformanceReports(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()

	perf, err := env.reports.GeneratePerformanceReport(ctx, DefaultTopPerformers)
	if err != nil {
		t.Fatalf("GeneratePerformanceReport: %v", err)
	}
	if len(perf.TopPerformers) != 2 || perf.TopPerformers[0].UserID != "MEM1" || perf.TopPerformers[0].ProgressScore != 80 {
		t.Errorf("top performers = %+v", perf.TopPerformers)
	}
	if perf.AverageProgressScore != 40 || perf.TotalWorkoutsCompleted != 1 || perf.TotalWorkoutsScheduled != 1 || perf.OverallCompletionRate != 100 {
		t.Errorf("unexpected totals %+v", perf)
	}

	trainers, err := env.reports.GenerateTrainerPerformanceReport(ctx)
	if err != nil {
		t.Fatalf("GenerateTrainerPerformanceReport: %v", err)
	}
	if trainers.TotalActiveTrainers != 2 || len(trainers.Trainers) != 2 {
		t.Fatalf("unexpected trainer report %+v", trainers)
	}
	first, second := trainers.Trainers[0], trainers.Trainers[1]
	if first.UserID != "TRN1" || first.AverageMemberProgressScore != 80 || first.ScheduleCompletionRate != 100 || first.TotalSchedulesManaged != 1 {
		t.Errorf("first trainer = %+v", first)
	}
	if second.UserID != "TRN2" || second.AverageMemberProgressScore != 0 || second.TotalSchedulesManaged != 0 {
		t.Errorf("second trainer = %+v", second)
	}
	if trainers.AverageTrainerPerformanceScore != 40 {
		t.Errorf("averageTrainerPerformanceScore = %v, want 40", trainers.AverageTrainerPerformanceScore)
	}
}

func TestAttendanceReportAndDashboard(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	if _, err := env.attendance.CheckInMember(ctx, "MEM1"); err != nil {
		t.Fatalf("CheckInMember: %v", err)
	}
	today := domain.DateOf(env.clock.Now())

	ar, err := env.reports.GenerateAttendanceReport(ctx, today, today)
	if err != nil {
		t.Fatalf("GenerateAttendanceReport: %v", err)
	}
	if ar.Stats.TotalVisits != 1 || ar.Summary.CheckedIn != 1 {
		t.Errorf("unexpected attendance report %+v / %+v", ar.Stats, ar.Summary)
	}
	// only MEM1 has completed workouts: 1 of 1
	if ar.AverageAttendancePercentage != 100 {
		t.Errorf("averageAttendancePercentage = %v, want 100", ar.AverageAttendancePercentage)
	}

	d, err := env.reports.GenerateDashboard(ctx)
	if err != nil {
		t.Fatalf("GenerateDashboard: %v", err)
	}
	want := Dashboard{
		Date:                    today,
		TotalMembers:            2,
		ActiveMembers:           2,
		ActiveTrainers:          2,
		TodayAttendance:         1,
		ProjectedMonthlyRevenue: 90,
		TotalRevenue:            50,
		AverageProgressScore:    40,
		WorkoutCompletionRate:   100,
		UpcomingWorkouts:        0,
		MembershipsExpiringSoon: 1,
	}
	if !d.Date.Equal(want.Date) {
		t.Errorf("dashboard date = %s, want %s", d.Date, want.Date)
	}
	d.Date = want.Date
	if *d != want {
		t.Errorf("dashboard = %+v\nwant %+v", *d, want)
	}
}

func TestSubscriptionPlanCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plans, err := env.reports.GetSubscriptionPlans(ctx)
	if err != nil {
		t.Fatalf("GetSubscriptionPlans: %v", err)
	}
	if len(plans) != 5 || plans[0].PlanID != "BASIC_MONTHLY" || plans[4].Price != 960 {
		t.Fatalf("default catalog = %+v", plans)
	}
	stored, err := env.repos.Plans.Load(ctx)
	if err != nil || len(stored) != 5 {
		t.Fatalf("seeded catalog must be persisted, got %d, %v", len(stored), err)
	}

	plan, err := env.reports.AddSubscriptionPlan(ctx, NewPlanInput{
		PlanID: "FAMILY", PlanName: "Family", Description: "Two adults, shared locker", Price: 150, DurationMonths: 1, PlanType: "premium",
	})
	if err != nil {
		t.Fatalf("AddSubscriptionPlan: %v", err)
	}
	if plan.PlanType != domain.PlanPremium || !plan.IncludesPersonalTrainer || plan.MaxWorkoutsPerWeek != 7 {
		t.Errorf("tier defaults not applied: %+v", plan)
	}

	active, err := env.reports.GetActiveSubscriptionPlans(ctx)
	if err != nil || len(active) != 6 {
		t.Fatalf("GetActiveSubscriptionPlans = %d, %v", len(active), err)
	}
	if got := active[5]; got.Description == nil || *got.Description != "Two adults, shared locker" {
		t.Errorf("description did not round trip: %v", got.Description)
	}

	if _, err := env.reports.AddSubscriptionPlan(ctx, NewPlanInput{PlanID: "FAMILY", PlanName: "Dup", Price: 1, DurationMonths: 1, PlanType: "BASIC"}); !errors.Is(err, ErrPlanIDTaken) {
		t.Errorf("expected ErrPlanIDTaken, got %v", err)
	}
	if _, err := env.reports.AddSubscriptionPlan(ctx, NewPlanInput{PlanID: "XXX1", PlanName: "X", Price: -1, DurationMonths: 0, PlanType: "GOLD"}); ErrorKind(err) != KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExportReports(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	reports, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "reports"))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	rm := NewReportManager(env.repos.Plans, env.users, env.attendance, env.workouts, reports, env.clock.Now)

	if _, err := env.reports.ExportMembershipReport(ctx, "members"); !errors.Is(err, ErrReportsDisabled) {
		t.Errorf("expected ErrReportsDisabled, got %v", err)
	}

	end := domain.DateOf(env.clock.Now())
	loc, err := rm.ExportRevenueReport(ctx, end.AddDate(0, 0, -29), end, "revenue")
	if err != nil {
		t.Fatalf("ExportRevenueReport: %v", err)
	}
	rows := readCSV(t, loc)
	values := make(map[string]string, len(rows))
	for _, row := range rows[1:] {
		values[row[0]] = row[1]
	}
	if values["Total Revenue"] != "50.00" || values["Projected Monthly Revenue"] != "90.00" || values["Revenue (yearly)"] != "0.00" {
		t.Errorf("unexpected revenue export %v", values)
	}

	loc, err = rm.ExportMembershipReport(ctx, "membership")
	if err != nil {
		t.Fatalf("ExportMembershipReport: %v", err)
	}
	rows = readCSV(t, loc)
	if rows[0][0] != "Metric" || rows[len(rows)-1][1] != "198.0" {
		t.Errorf("unexpected membership export %v", rows)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
