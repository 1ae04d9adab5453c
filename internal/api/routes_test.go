package api

import (
	"alcyxob/gym-manager/internal/repository/flatfile"
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	users  service.UserManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	repos, err := flatfile.NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	reportStorage, err := storage.NewLocalStorage(filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	users := service.NewUserManager(repos, time.Now)
	attendance := service.NewAttendanceManager(repos.Attendance, users, reportStorage, time.Now)
	workouts := service.NewWorkoutManager(repos.Schedules, users, time.Now)
	reports := service.NewReportManager(repos.Plans, users, attendance, workouts, reportStorage, time.Now)

	router := gin.New()
	SetupRoutes(router, testSecret, Services{
		Auth:          service.NewAuthService(users, testSecret, time.Hour),
		Users:         users,
		Attendance:    attendance,
		Workouts:      workouts,
		Reports:       reports,
		ReportStorage: reportStorage,
		TopPerformers: 10,
	})
	return &testServer{router: router, users: users}
}

// do sends body as JSON and decodes the response into a map.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

func (s *testServer) login(t *testing.T, userID, password string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UserID: userID, Password: password})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %v", userID, code, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s returned no token: %v", userID, body)
	}
	return token
}

func (s *testServer) register(t *testing.T, userID string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		UserID: userID, Name: "Jane Doe", Email: userID + "@example.com",
		Phone: "5551234567", Password: "secret", MembershipType: "monthly",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", userID, code, body)
	}
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.users.AddAdmin(context.Background(), service.NewAdminInput{
		UserID: "admin", Name: "System Administrator", Email: "admin@gym.com",
		Phone: "1234567890", Password: "admin123", AdminLevel: "Super Admin",
	})
	if err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	return s.login(t, "admin", "admin123")
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/ping", "", nil)
	if code != http.StatusOK || body["message"] != "pong" {
		t.Fatalf("ping = %d %v", code, body)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "M100")

	t.Run("duplicate registration is a conflict", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
			UserID: "M100", Name: "Jane Doe", Email: "jane@example.com",
			Phone: "5551234567", Password: "secret", MembershipType: "monthly",
		})
		if code != http.StatusConflict || body["kind"] != service.KindConflict {
			t.Fatalf("got %d %v", code, body)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UserID: "M100", Password: "nope"})
		if code != http.StatusUnauthorized || body["kind"] != service.KindAuth {
			t.Fatalf("got %d %v", code, body)
		}
	})

	token := s.login(t, "M100", "secret")
	code, body := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %v", code, body)
	}
	if body["userId"] != "M100" || body["role"] != "MEMBER" || body["membershipType"] != "monthly" {
		t.Errorf("unexpected me body %v", body)
	}
	if _, leaked := body["passwordHash"]; leaked {
		t.Errorf("password hash must not be serialised")
	}
}

func TestAuthAndRoleChecks(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "M100")
	s.register(t, "M200")
	member := s.login(t, "M100", "secret")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"missing token", http.MethodGet, "/api/v1/me", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/me", "not-a-jwt", nil, http.StatusUnauthorized},
		{"member reads reports", http.MethodGet, "/api/v1/reports/dashboard", member, nil, http.StatusForbidden},
		{"member lists members", http.MethodGet, "/api/v1/members", member, nil, http.StatusForbidden},
		{"member reads another member", http.MethodGet, "/api/v1/members/M200", member, nil, http.StatusForbidden},
		{"member checks in another member", http.MethodPost, "/api/v1/attendance/check-in", member, MemberRequest{MemberID: "M200"}, http.StatusForbidden},
		{"member lists every schedule", http.MethodGet, "/api/v1/workouts", member, nil, http.StatusForbidden},
		{"member lists schedules by trainer", http.MethodGet, "/api/v1/workouts?trainerId=T100", member, nil, http.StatusForbidden},
		{"member lists schedules by status", http.MethodGet, "/api/v1/workouts?status=SCHEDULED", member, nil, http.StatusForbidden},
		{"member lists own schedules", http.MethodGet, "/api/v1/workouts?memberId=M100", member, nil, http.StatusOK},
		{"member lists another member's schedules", http.MethodGet, "/api/v1/workouts?memberId=M200", member, nil, http.StatusForbidden},
		{"member reads self", http.MethodGet, "/api/v1/members/M100", member, nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(t, tc.method, tc.path, tc.token, tc.body)
			if code != tc.want {
				t.Errorf("%s %s = %d, want %d (%v)", tc.method, tc.path, code, tc.want, body)
			}
		})
	}
}

func TestCheckInFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "M100")
	token := s.login(t, "M100", "secret")

	code, body := s.do(t, http.MethodPost, "/api/v1/attendance/check-in", token, MemberRequest{MemberID: "M100"})
	if code != http.StatusCreated || body["status"] != "CHECKED_IN" {
		t.Fatalf("check-in: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/attendance/check-in", token, MemberRequest{MemberID: "M100"})
	if code != http.StatusConflict || body["kind"] != service.KindConflict {
		t.Fatalf("second check-in: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", token, MemberRequest{MemberID: "M100"})
	if code != http.StatusOK || body["checkOutTime"] == nil {
		t.Fatalf("check-out: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", token, MemberRequest{MemberID: "M100"})
	if code != http.StatusUnprocessableEntity || body["kind"] != service.KindState {
		t.Fatalf("second check-out: %d %v", code, body)
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	t.Run("invalid member is a validation error with fields", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/api/v1/members", admin, CreateMemberRequest{
			UserID: "M100", Name: "Jane Doe", Email: "not-an-email",
			Phone: "5551234567", Password: "secret", MembershipType: "monthly",
		})
		if code != http.StatusBadRequest || body["kind"] != service.KindValidation {
			t.Fatalf("got %d %v", code, body)
		}
		fields, _ := body["fields"].(map[string]any)
		if _, ok := fields["email"]; !ok {
			t.Errorf("expected an email field error, got %v", body["fields"])
		}
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		code, body := s.do(t, http.MethodGet, "/api/v1/members/NOPE", admin, nil)
		if code != http.StatusNotFound || body["kind"] != service.KindNotFound {
			t.Fatalf("got %d %v", code, body)
		}
	})

	t.Run("bad date range", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/reports/revenue?start=yesterday", admin, nil)
		if code != http.StatusBadRequest {
			t.Fatalf("got %d", code)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		code, body := s.do(t, http.MethodGet, "/api/v1/reports/dashboard", admin, nil)
		if code != http.StatusOK {
			t.Fatalf("got %d %v", code, body)
		}
		if _, ok := body["totalMembers"]; !ok {
			t.Errorf("dashboard missing totalMembers: %v", body)
		}
	})

	t.Run("membership export", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/api/v1/reports/membership/export", admin, ExportRequest{Name: "membership"})
		if code != http.StatusCreated {
			t.Fatalf("got %d %v", code, body)
		}
		location, _ := body["location"].(string)
		url, _ := body["url"].(string)
		if location == "" || url == "" {
			t.Errorf("export response missing location or url: %v", body)
		}
	})

	t.Run("export with a path in the name", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/api/v1/reports/membership/export", admin, ExportRequest{Name: "../escape"})
		if code != http.StatusBadRequest || body["kind"] != service.KindValidation {
			t.Fatalf("got %d %v", code, body)
		}
	})
}

func TestWorkoutLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	s.register(t, "M100")

	code, body := s.do(t, http.MethodPost, "/api/v1/trainers", admin, CreateTrainerRequest{
		UserID: "T100", Name: "Coach Carter", Email: "coach@example.com", Phone: "5557654321",
		Password: "secret", Specialization: "Strength", ExperienceYears: 4,
	})
	if code != http.StatusCreated {
		t.Fatalf("create trainer: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/workouts", admin, CreateScheduleRequest{
		ScheduleID: "S100", MemberID: "M100", TrainerID: "T100", WorkoutName: "Leg Day",
	})
	if code != http.StatusCreated || body["status"] != "SCHEDULED" {
		t.Fatalf("create schedule: %d %v", code, body)
	}

	pct := 50.0
	code, body = s.do(t, http.MethodPut, "/api/v1/workouts/S100/progress", admin, ProgressRequest{CompletionPercentage: &pct})
	if code != http.StatusOK || body["status"] != "IN_PROGRESS" {
		t.Fatalf("progress: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/workouts/S100/cancel", admin, CancelRequest{Reason: "injury"})
	if code != http.StatusOK || body["status"] != "CANCELLED" {
		t.Fatalf("cancel: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPut, "/api/v1/workouts/S100/progress", admin, ProgressRequest{CompletionPercentage: &pct})
	if code != http.StatusUnprocessableEntity || body["kind"] != service.KindState {
		t.Fatalf("progress on cancelled: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/workouts?status=bogus", admin, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad status filter: %d %v", code, body)
	}
}

func TestListPlans(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "M100")
	member := s.login(t, "M100", "secret")

	list := func(t *testing.T, path string) []PlanResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+member)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d (%s)", path, w.Code, w.Body.String())
		}
		var plans []PlanResponse
		if err := json.Unmarshal(w.Body.Bytes(), &plans); err != nil {
			t.Fatalf("decode plans: %v", err)
		}
		return plans
	}

	t.Run("monthly price", func(t *testing.T) {
		plans := list(t, "/api/v1/plans")
		if len(plans) != 5 {
			t.Fatalf("got %d plans, want the 5 defaults", len(plans))
		}
		for _, p := range plans {
			if p.PlanID == "BASIC_YEARLY" && p.MonthlyPrice != 40 {
				t.Errorf("BASIC_YEARLY monthlyPrice = %v, want 40", p.MonthlyPrice)
			}
			if p.PlanID == "BASIC_MONTHLY" && p.MonthlyPrice != 50 {
				t.Errorf("BASIC_MONTHLY monthlyPrice = %v, want 50", p.MonthlyPrice)
			}
		}
	})

	t.Run("weekly workouts filter", func(t *testing.T) {
		plans := list(t, "/api/v1/plans?active=true&workoutsPerWeek=6")
		if len(plans) != 2 {
			t.Fatalf("got %d plans, want the 2 premium plans", len(plans))
		}
		for _, p := range plans {
			if p.MaxWorkoutsPerWeek < 6 {
				t.Errorf("%s allows only %d workouts", p.PlanID, p.MaxWorkoutsPerWeek)
			}
		}
	})

	t.Run("bad filter", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/plans?workoutsPerWeek=many", member, nil)
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})
}
