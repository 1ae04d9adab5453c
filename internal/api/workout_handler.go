package api

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler exposes workout schedules.
type WorkoutHandler struct {
	workouts      service.WorkoutManager
	topPerformers int
}

func NewWorkoutHandler(workouts service.WorkoutManager, topPerformers int) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts, topPerformers: topPerformers}
}

// --- DTOs ---

type CreateScheduleRequest struct {
	ScheduleID    string     `json:"scheduleId" binding:"required"`
	MemberID      string     `json:"memberId" binding:"required"`
	TrainerID     string     `json:"trainerId" binding:"required"`
	WorkoutName   string     `json:"workoutName" binding:"required"`
	ScheduledTime *time.Time `json:"scheduledTime"`
}

type UpdateScheduleRequest struct {
	WorkoutName     string     `json:"workoutName"`
	Description     string     `json:"description"`
	ScheduledTime   *time.Time `json:"scheduledTime"`
	DurationMinutes int        `json:"durationMinutes"`
	WorkoutType     string     `json:"workoutType"`
}

type ProgressRequest struct {
	CompletionPercentage *float64 `json:"completionPercentage" binding:"required"`
	Notes                string   `json:"notes"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type AddExerciseRequest struct {
	Name     string  `json:"name" binding:"required"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weightKg"`
}

type AddCardioRequest struct {
	Name            string `json:"name" binding:"required"`
	DurationSeconds int    `json:"durationSeconds"`
}

// --- Handlers ---

// CreateSchedule godoc
// @Summary Create a workout schedule
// @Description Creates a SCHEDULED session for a member and trainer, optionally timed.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schedule body CreateScheduleRequest true "Schedule"
// @Success 201 {object} domain.WorkoutSchedule
// @Failure 404 {object} gin.H "Member or trainer not found"
// @Failure 409 {object} gin.H "Schedule ID already exists"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	ws, err := h.workouts.CreateWorkoutSchedule(ctx, req.ScheduleID, req.MemberID, req.TrainerID, req.WorkoutName)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.ScheduledTime != nil {
		if ws, err = h.workouts.ScheduleWorkout(ctx, req.ScheduleID, req.ScheduledTime.Local()); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, ws)
}

// ListSchedules filters by one of ?memberId, ?trainerId or ?status; without a
// filter every schedule is returned. Members may only use ?memberId for themselves.
func (h *WorkoutHandler) ListSchedules(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		schedules []domain.WorkoutSchedule
		err       error
	)
	switch {
	case c.Query("memberId") != "":
		memberID := c.Query("memberId")
		if !requireSelfOrStaff(c, memberID) {
			return
		}
		schedules, err = h.workouts.GetSchedulesByMember(ctx, memberID)
	case c.Query("trainerId") != "":
		if !requireStaff(c) {
			return
		}
		schedules, err = h.workouts.GetSchedulesByTrainer(ctx, c.Query("trainerId"))
	case c.Query("status") != "":
		if !requireStaff(c) {
			return
		}
		status, perr := domain.ParseScheduleStatus(c.Query("status"))
		if perr != nil {
			abortWithError(c, http.StatusBadRequest, perr.Error())
			return
		}
		schedules, err = h.workouts.GetSchedulesByStatus(ctx, status)
	default:
		if !requireStaff(c) {
			return
		}
		schedules, err = h.workouts.GetAllWorkoutSchedules(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *WorkoutHandler) GetUpcoming(c *gin.Context) {
	schedules, err := h.workouts.GetUpcomingSchedules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *WorkoutHandler) GetOverdue(c *gin.Context) {
	schedules, err := h.workouts.GetOverdueSchedules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *WorkoutHandler) GetSchedule(c *gin.Context) {
	ws, err := h.workouts.FindScheduleByID(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !requireSelfOrStaff(c, ws.MemberID) {
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) UpdateSchedule(c *gin.Context) {
	var req UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ScheduledTime != nil {
		local := req.ScheduledTime.Local()
		req.ScheduledTime = &local
	}
	ws, err := h.workouts.UpdateWorkoutSchedule(c.Request.Context(), c.Param("scheduleId"), service.ScheduleUpdate(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// UpdateProgress godoc
// @Summary Record workout progress
// @Description Sets the completion percentage (clamped to 0..100) and refreshes the member's progress score.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scheduleId path string true "Schedule ID"
// @Param progress body ProgressRequest true "Progress"
// @Success 200 {object} domain.WorkoutSchedule
// @Failure 404 {object} gin.H "Schedule not found"
// @Failure 422 {object} gin.H "Schedule is cancelled"
// @Router /workouts/{scheduleId}/progress [put]
func (h *WorkoutHandler) UpdateProgress(c *gin.Context) {
	var req ProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workouts.UpdateWorkoutProgress(c.Request.Context(), c.Param("scheduleId"), *req.CompletionPercentage, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) CompleteSchedule(c *gin.Context) {
	var req NotesRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workouts.CompleteWorkout(c.Request.Context(), c.Param("scheduleId"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) CancelSchedule(c *gin.Context) {
	var req CancelRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workouts.CancelWorkout(c.Request.Context(), c.Param("scheduleId"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) MarkMissed(c *gin.Context) {
	ws, err := h.workouts.MarkWorkoutMissed(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	var req AddExerciseRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workouts.AddExerciseToSchedule(c.Request.Context(), c.Param("scheduleId"), req.Name, req.Sets, req.Reps, req.WeightKg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) AddCardio(c *gin.Context) {
	var req AddCardioRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workouts.AddCardioExerciseToSchedule(c.Request.Context(), c.Param("scheduleId"), req.Name, req.DurationSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkoutHandler) GetMemberStats(c *gin.Context) {
	memberID := c.Param("memberId")
	if !requireSelfOrStaff(c, memberID) {
		return
	}
	stats, err := h.workouts.GetMemberWorkoutStats(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTopPerformers returns members ranked by progress score, ?limit overriding
// the configured default.
func (h *WorkoutHandler) GetTopPerformers(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.topPerformers)
	if !ok {
		return
	}
	members, err := h.workouts.GetTopPerformingMembers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
