package flatfile

import (
	"alcyxob/gym-manager/internal/domain"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func localTime(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func sameTime(a, b time.Time) bool { return a.Equal(b) }

func sameOptTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameOptText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func TestMembersRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}

	start := localTime(2024, time.January, 31, 0, 0, 0)
	members := []domain.Member{
		{
			Account: domain.Account{
				UserID: "M001", Name: "Alice Smith", Email: "alice@example.com", Phone: "+15551234567",
				PasswordHash: "$2a$10$abc:def,ghi|jkl", Role: domain.RoleMember,
				CreatedAt: localTime(2024, time.January, 31, 9, 30, 0), IsActive: true,
			},
			MembershipType:      domain.MembershipMonthly,
			MembershipStartDate: start,
			MembershipEndDate:   domain.MembershipMonthly.EndDate(start),
			AssignedTrainerID:   strPtr("T001"),
			WorkoutScheduleIDs:  []string{"S1", "S2"},
			ProgressScore:       72.5,
			TotalWorkouts:       2,
			AttendedWorkouts:    1,
		},
		{
			Account: domain.Account{
				UserID: "M002", Name: "Bob", Email: "bob@example.com", Phone: "5551234567",
				Role: domain.RoleMember, CreatedAt: localTime(2023, time.June, 1, 0, 0, 0),
			},
			MembershipType:      domain.MembershipYearly,
			MembershipStartDate: localTime(2023, time.June, 1, 0, 0, 0),
			MembershipEndDate:   localTime(2024, time.June, 1, 0, 0, 0),
			WorkoutScheduleIDs:  []string{},
		},
	}

	if err := repos.Members.Save(ctx, members); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repos.Members.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(members) {
		t.Fatalf("loaded %d members, want %d", len(got), len(members))
	}
	for i := range members {
		want, have := members[i], got[i]
		if !sameTime(want.CreatedAt, have.CreatedAt) ||
			!sameTime(want.MembershipStartDate, have.MembershipStartDate) ||
			!sameTime(want.MembershipEndDate, have.MembershipEndDate) {
			t.Errorf("member %d: times differ: %+v vs %+v", i, want, have)
		}
		if !sameOptText(want.AssignedTrainerID, have.AssignedTrainerID) {
			t.Errorf("member %d: trainer id %v, want %v", i, have.AssignedTrainerID, want.AssignedTrainerID)
		}
		want.CreatedAt, have.CreatedAt = time.Time{}, time.Time{}
		want.MembershipStartDate, have.MembershipStartDate = time.Time{}, time.Time{}
		want.MembershipEndDate, have.MembershipEndDate = time.Time{}, time.Time{}
		want.AssignedTrainerID, have.AssignedTrainerID = nil, nil
		if !reflect.DeepEqual(want, have) {
			t.Errorf("member %d:\n got %+v\nwant %+v", i, have, want)
		}
	}
}

func TestTrainersAndAdminsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	created := localTime(2024, time.March, 5, 8, 0, 0)

	trainers := []domain.Trainer{{
		Account: domain.Account{
			UserID: "T001", Name: "Carol", Email: "carol@example.com", Phone: "5550001111",
			PasswordHash: "hash", Role: domain.RoleTrainer, CreatedAt: created, IsActive: true,
		},
		Specialization:    "Strength, conditioning & mobility: level 2",
		ExperienceYears:   7,
		AssignedMemberIDs: []string{"M001", "M002"},
	}}
	if err := repos.Trainers.Save(ctx, trainers); err != nil {
		t.Fatalf("Save trainers: %v", err)
	}
	gotTrainers, err := repos.Trainers.Load(ctx)
	if err != nil {
		t.Fatalf("Load trainers: %v", err)
	}
	if len(gotTrainers) != 1 {
		t.Fatalf("loaded %d trainers, want 1", len(gotTrainers))
	}
	tr := gotTrainers[0]
	if tr.Specialization != trainers[0].Specialization {
		t.Errorf("specialization = %q, want %q", tr.Specialization, trainers[0].Specialization)
	}
	if !reflect.DeepEqual(tr.AssignedMemberIDs, trainers[0].AssignedMemberIDs) {
		t.Errorf("assigned members = %v", tr.AssignedMemberIDs)
	}
	if tr.ExperienceYears != 7 || !tr.IsActive || tr.Role != domain.RoleTrainer || !tr.CreatedAt.Equal(created) {
		t.Errorf("unexpected trainer %+v", tr)
	}

	admins := []domain.Admin{{
		Account: domain.Account{
			UserID: "admin", Name: "Root", Email: "root@example.com", Phone: "5550002222",
			PasswordHash: "hash", Role: domain.RoleAdmin, CreatedAt: created, IsActive: false,
		},
		AdminLevel: "SUPER",
	}}
	if err := repos.Admins.Save(ctx, admins); err != nil {
		t.Fatalf("Save admins: %v", err)
	}
	gotAdmins, err := repos.Admins.Load(ctx)
	if err != nil {
		t.Fatalf("Load admins: %v", err)
	}
	if len(gotAdmins) != 1 || gotAdmins[0].AdminLevel != "SUPER" || gotAdmins[0].IsActive {
		t.Errorf("unexpected admins %+v", gotAdmins)
	}
}

func TestSchedulesRoundTripPreservesExercises(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}

	withAll := domain.NewWorkoutSchedule("S1", "M001", "T001", "Leg day")
	withAll.Description = strPtr("Squats, lunches\nand stretching")
	withAll.ScheduledTime = timePtr(localTime(2024, time.May, 2, 18, 0, 0))
	withAll.WorkoutType = domain.WorkoutStrength
	withAll.AddExercise(domain.Exercise{
		Name: "Squat: back", Sets: 5, Reps: 5, WeightKg: 102.5, DurationSeconds: 0,
		Instructions: "Keep chest up | brace, then descend",
	})
	withAll.AddExercise(domain.NewTimedExercise("Rowing", 600))
	withAll.UpdateProgress(40, "halfway & tired")

	bare := domain.NewWorkoutSchedule("S2", "M002", "T001", "Intro")

	if err := repos.Schedules.Save(ctx, []domain.WorkoutSchedule{withAll, bare}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repos.Schedules.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d schedules, want 2", len(got))
	}

	s := got[0]
	if !sameOptTime(s.ScheduledTime, withAll.ScheduledTime) {
		t.Errorf("scheduled time = %v, want %v", s.ScheduledTime, withAll.ScheduledTime)
	}
	s.ScheduledTime = withAll.ScheduledTime
	if !reflect.DeepEqual(s, withAll) {
		t.Errorf("schedule:\n got %+v\nwant %+v", s, withAll)
	}

	b := got[1]
	if b.Description != nil || b.ScheduledTime != nil || b.ProgressNotes != nil {
		t.Errorf("absent fields should load as nil: %+v", b)
	}
	if !reflect.DeepEqual(b, bare) {
		t.Errorf("bare schedule:\n got %+v\nwant %+v", b, bare)
	}
}

func TestAttendanceAndPlansRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}

	day := localTime(2024, time.May, 2, 0, 0, 0)
	in := localTime(2024, time.May, 2, 9, 0, 0)
	out := localTime(2024, time.May, 2, 10, 15, 0)
	records := []domain.Attendance{
		{
			AttendanceID: "ATT1", MemberID: "M001", MemberName: "Alice Smith", Date: day,
			CheckInTime: &in, CheckOutTime: &out, WorkoutScheduleID: strPtr("S1"),
			Status: domain.AttendanceCheckedOut, Notes: strPtr("felt good, strong"),
		},
		{AttendanceID: "ATT2", MemberID: "M002", MemberName: "Bob", Date: day, Status: domain.AttendanceMissed},
	}
	if err := repos.Attendance.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repos.Attendance.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d records, want 2", len(got))
	}
	if got[0].WorkoutDurationMinutes() != 75 || *got[0].Notes != "felt good, strong" || *got[0].WorkoutScheduleID != "S1" {
		t.Errorf("unexpected first record %+v", got[0])
	}
	if got[1].CheckInTime != nil || got[1].CheckOutTime != nil || got[1].Notes != nil || got[1].WorkoutScheduleID != nil {
		t.Errorf("absent fields should load as nil: %+v", got[1])
	}
	if !got[1].Date.Equal(day) || got[1].Status != domain.AttendanceMissed {
		t.Errorf("unexpected second record %+v", got[1])
	}

	plans := domain.DefaultSubscriptionPlans()
	plans[0].Description = strPtr("Entry level: gym floor only")
	if err := repos.Plans.Save(ctx, plans); err != nil {
		t.Fatalf("Save plans: %v", err)
	}
	gotPlans, err := repos.Plans.Load(ctx)
	if err != nil {
		t.Fatalf("Load plans: %v", err)
	}
	if !reflect.DeepEqual(gotPlans, plans) {
		t.Errorf("plans:\n got %+v\nwant %+v", gotPlans, plans)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(filepath.Join(dir, "nested", "data"))
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	got, err := repos.Members.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no members, got %d", len(got))
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	content := strings.Join([]string{
		strings.Join(adminColumns, ","),
		"A1,Ann,ann@example.com,5551112222,h,SUPER,true,2024-01-02T03:04:05",
		"A2,too,few,columns",
		"A3,Bad,bad@example.com,5551112222,h,SUPER,maybe,2024-01-02T03:04:05",
		"",
		",NoID,noid@example.com,5551112222,h,SUPER,true,2024-01-02T03:04:05",
		"A4,Dan,dan@example.com,5551112222,h,BASIC,false,",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, AdminsFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	got, err := repos.Admins.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "A1" || got[1].UserID != "A4" {
		t.Fatalf("expected A1 and A4, got %+v", got)
	}
	if !got[1].CreatedAt.IsZero() {
		t.Errorf("empty createdAt should load as zero time, got %v", got[1].CreatedAt)
	}
}

func TestSaveReplacesContents(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repos, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	plans := domain.DefaultSubscriptionPlans()
	if err := repos.Plans.Save(ctx, plans); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repos.Plans.Save(ctx, plans[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repos.Plans.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 plan after overwrite, got %d", len(got))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{
		"plain",
		"a,b|c:d",
		"line1\nline2",
		"&#44; already looks escaped",
		"&amp;&",
	}
	for _, c := range cases {
		if got := unescape(escape(c)); got != c {
			t.Errorf("unescape(escape(%q)) = %q", c, got)
		}
		esc := escape(c)
		if strings.ContainsAny(esc, ",|:\n") {
			t.Errorf("escape(%q) = %q still contains separators", c, esc)
		}
	}
}
