package api

import (
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultStatsDays = 30

// AttendanceHandler exposes check-in/out and attendance statistics.
type AttendanceHandler struct {
	attendance    service.AttendanceManager
	reportStorage storage.ReportStorage
	now           func() time.Time
}

func NewAttendanceHandler(attendance service.AttendanceManager, reportStorage storage.ReportStorage) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, reportStorage: reportStorage, now: time.Now}
}

// --- DTOs ---

type MemberRequest struct {
	MemberID string `json:"memberId" binding:"required"`
}

type MarkLateRequest struct {
	MemberID      string    `json:"memberId" binding:"required"`
	ScheduledTime time.Time `json:"scheduledTime" binding:"required"`
}

type MarkMissedRequest struct {
	MemberID   string `json:"memberId" binding:"required"`
	ScheduleID string `json:"scheduleId" binding:"required"`
}

type ExportRequest struct {
	Name string `json:"name" binding:"required"`
}

// ExportResponse points at a stored report.
type ExportResponse struct {
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
}

// --- Handlers ---

// CheckIn godoc
// @Summary Check a member in
// @Description Members may only check themselves in.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MemberRequest true "Member"
// @Success 201 {object} domain.Attendance
// @Failure 404 {object} gin.H "Member not found"
// @Failure 422 {object} gin.H "Inactive membership or already checked in"
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req MemberRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireSelfOrStaff(c, req.MemberID) {
		return
	}
	rec, err := h.attendance.CheckInMember(c.Request.Context(), req.MemberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req MemberRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireSelfOrStaff(c, req.MemberID) {
		return
	}
	rec, err := h.attendance.CheckOutMember(c.Request.Context(), req.MemberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *AttendanceHandler) MarkLate(c *gin.Context) {
	var req MarkLateRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.attendance.MarkMemberLate(c.Request.Context(), req.MemberID, req.ScheduledTime.Local())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *AttendanceHandler) MarkMissed(c *gin.Context) {
	var req MarkMissedRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.attendance.MarkMemberMissed(c.Request.Context(), req.MemberID, req.ScheduleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *AttendanceHandler) GetMemberAttendance(c *gin.Context) {
	memberID := c.Param("memberId")
	if !requireSelfOrStaff(c, memberID) {
		return
	}
	records, err := h.attendance.GetAttendanceByMember(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetMemberStats returns the member's statistics over the last ?days (default 30).
func (h *AttendanceHandler) GetMemberStats(c *gin.Context) {
	memberID := c.Param("memberId")
	if !requireSelfOrStaff(c, memberID) {
		return
	}
	days, ok := intQuery(c, "days", defaultStatsDays)
	if !ok {
		return
	}
	stats, err := h.attendance.GetMemberAttendanceStats(c.Request.Context(), memberID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListAttendance returns records between ?start and ?end, or every record
// with ?all=true.
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("all") == "true" {
		records, err := h.attendance.GetAllAttendanceRecords(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	records, err := h.attendance.GetAttendanceByDateRange(ctx, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetToday(c *gin.Context) {
	records, err := h.attendance.GetTodayAttendance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetGymStats(c *gin.Context) {
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	stats, err := h.attendance.GetGymAttendanceStats(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AttendanceHandler) GetSummary(c *gin.Context) {
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	summary, err := h.attendance.GetAttendanceSummary(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportReport writes the attendance CSV for ?start..?end and returns where it
// was stored.
func (h *AttendanceHandler) ExportReport(c *gin.Context) {
	var req ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	location, err := h.attendance.ExportAttendanceReport(c.Request.Context(), start, end, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondExport(c, h.reportStorage, location)
}

// respondExport renders an ExportResponse, adding a download URL when the
// storage backend can produce one.
func respondExport(c *gin.Context, reports storage.ReportStorage, location string) {
	resp := ExportResponse{Location: location}
	if reports != nil {
		url, err := reports.ReportURL(c.Request.Context(), location, storage.DefaultPresignedURLExpiry)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.URL = url
	}
	c.JSON(http.StatusCreated, resp)
}
