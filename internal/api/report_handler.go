package api

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReportHandler exposes reports, exports and the subscription plan catalog.
type ReportHandler struct {
	reports       service.ReportManager
	reportStorage storage.ReportStorage
	topPerformers int
	now           func() time.Time
}

func NewReportHandler(reports service.ReportManager, reportStorage storage.ReportStorage, topPerformers int) *ReportHandler {
	return &ReportHandler{reports: reports, reportStorage: reportStorage, topPerformers: topPerformers, now: time.Now}
}

type CreatePlanRequest struct {
	PlanID         string  `json:"planId" binding:"required"`
	PlanName       string  `json:"planName" binding:"required"`
	Description    string  `json:"description"`
	Price          float64 `json:"price" binding:"min=0"`
	DurationMonths int     `json:"durationMonths" binding:"required,min=1"`
	PlanType       string  `json:"planType" binding:"required"`
}

// --- Reports ---

// GetRevenue godoc
// @Summary Revenue report
// @Description Revenue from active memberships, with a per-type breakdown, for ?start..?end (YYYY-MM-DD, default last 30 days).
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param start query string false "Start date"
// @Param end query string false "End date"
// @Success 200 {object} service.RevenueReport
// @Router /reports/revenue [get]
func (h *ReportHandler) GetRevenue(c *gin.Context) {
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	report, err := h.reports.GenerateRevenueReport(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetMembership(c *gin.Context) {
	report, err := h.reports.GenerateMembershipReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetAttendance(c *gin.Context) {
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	report, err := h.reports.GenerateAttendanceReport(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPerformance ranks members by progress score; ?top overrides the
// configured size.
func (h *ReportHandler) GetPerformance(c *gin.Context) {
	top, ok := intQuery(c, "top", h.topPerformers)
	if !ok {
		return
	}
	report, err := h.reports.GeneratePerformanceReport(c.Request.Context(), top)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetTrainerPerformance(c *gin.Context) {
	report, err := h.reports.GenerateTrainerPerformanceReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.reports.GenerateDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// --- Exports ---

func (h *ReportHandler) ExportRevenue(c *gin.Context) {
	var req ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	start, end, ok := dateRange(c, h.now())
	if !ok {
		return
	}
	location, err := h.reports.ExportRevenueReport(c.Request.Context(), start, end, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondExport(c, h.reportStorage, location)
}

func (h *ReportHandler) ExportMembership(c *gin.Context) {
	var req ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	location, err := h.reports.ExportMembershipReport(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondExport(c, h.reportStorage, location)
}

// --- Subscription plans ---

// PlanResponse is a catalog entry with its price spread per month.
type PlanResponse struct {
	domain.SubscriptionPlan
	MonthlyPrice float64 `json:"monthlyPrice"`
}

// ListPlans godoc
// @Summary List subscription plans
// @Description Returns the catalog, or only active plans with ?active=true. ?workoutsPerWeek=n keeps plans allowing n weekly workouts.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active plans"
// @Param workoutsPerWeek query int false "Required weekly workouts"
// @Success 200 {array} PlanResponse
// @Router /plans [get]
func (h *ReportHandler) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()
	perWeek, ok := intQuery(c, "workoutsPerWeek", 0)
	if !ok {
		return
	}

	var (
		plans []domain.SubscriptionPlan
		err   error
	)
	if c.Query("active") == "true" {
		plans, err = h.reports.GetActiveSubscriptionPlans(ctx)
	} else {
		plans, err = h.reports.GetSubscriptionPlans(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		if !p.AllowsWorkoutsPerWeek(perWeek) {
			continue
		}
		resp = append(resp, PlanResponse{SubscriptionPlan: p, MonthlyPrice: p.MonthlyPrice()})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.reports.AddSubscriptionPlan(c.Request.Context(), service.NewPlanInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}
