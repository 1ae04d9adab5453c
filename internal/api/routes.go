package api

import (
	"alcyxob/gym-manager/internal/domain" // Needed for RoleMiddleware
	"alcyxob/gym-manager/internal/metrics"
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the managers the HTTP layer is built on.
type Services struct {
	Auth          service.AuthService
	Users         service.UserManager
	Attendance    service.AttendanceManager
	Workouts      service.WorkoutManager
	Reports       service.ReportManager
	ReportStorage storage.ReportStorage // nil disables download URLs
	TopPerformers int
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Users)
	memberHandler := NewMemberHandler(svc.Users)
	trainerHandler := NewTrainerHandler(svc.Users)
	attendanceHandler := NewAttendanceHandler(svc.Attendance, svc.ReportStorage)
	workoutHandler := NewWorkoutHandler(svc.Workouts, svc.TopPerformers)
	reportHandler := NewReportHandler(svc.Reports, svc.ReportStorage, svc.TopPerformers)

	authMiddleware := AuthMiddleware(jwtSecret)
	adminOnly := RoleMiddleware(domain.RoleAdmin)
	staffOnly := RoleMiddleware(domain.RoleAdmin, domain.RoleTrainer)

	router.Use(metrics.GinMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Members ---
		members := protected.Group("/members")
		{
			members.POST("", adminOnly, memberHandler.CreateMember)
			members.GET("", staffOnly, memberHandler.ListMembers)
			members.GET("/:memberId", memberHandler.GetMember)
			members.PUT("/:memberId", memberHandler.UpdateMember)
			members.DELETE("/:memberId", adminOnly, memberHandler.DeleteMember)
			members.POST("/:memberId/renew", adminOnly, memberHandler.RenewMembership)
			members.POST("/:memberId/trainer", adminOnly, memberHandler.AssignTrainer)
			members.DELETE("/:memberId/trainer/:trainerId", adminOnly, memberHandler.UnassignTrainer)

			members.GET("/:memberId/attendance", attendanceHandler.GetMemberAttendance)
			members.GET("/:memberId/attendance/stats", attendanceHandler.GetMemberStats)
			members.GET("/:memberId/workouts/stats", workoutHandler.GetMemberStats)
		}

		// --- Trainers ---
		trainers := protected.Group("/trainers")
		trainers.Use(staffOnly)
		{
			trainers.POST("", adminOnly, trainerHandler.CreateTrainer)
			trainers.GET("", trainerHandler.ListTrainers)
			trainers.GET("/:trainerId", trainerHandler.GetTrainer)
			trainers.PUT("/:trainerId", adminOnly, trainerHandler.UpdateTrainer)
			trainers.DELETE("/:trainerId", adminOnly, trainerHandler.DeleteTrainer)
			trainers.GET("/:trainerId/members", trainerHandler.GetTrainerMembers)
		}

		// --- Attendance ---
		attendance := protected.Group("/attendance")
		{
			attendance.POST("/check-in", attendanceHandler.CheckIn)
			attendance.POST("/check-out", attendanceHandler.CheckOut)
			attendance.POST("/late", staffOnly, attendanceHandler.MarkLate)
			attendance.POST("/missed", staffOnly, attendanceHandler.MarkMissed)
			attendance.GET("", staffOnly, attendanceHandler.ListAttendance)
			attendance.GET("/today", staffOnly, attendanceHandler.GetToday)
			attendance.GET("/stats", staffOnly, attendanceHandler.GetGymStats)
			attendance.GET("/summary", staffOnly, attendanceHandler.GetSummary)
			attendance.POST("/export", adminOnly, attendanceHandler.ExportReport)
		}

		// --- Workouts ---
		workouts := protected.Group("/workouts")
		{
			workouts.POST("", staffOnly, workoutHandler.CreateSchedule)
			workouts.GET("", workoutHandler.ListSchedules)
			workouts.GET("/upcoming", staffOnly, workoutHandler.GetUpcoming)
			workouts.GET("/overdue", staffOnly, workoutHandler.GetOverdue)
			workouts.GET("/top", staffOnly, workoutHandler.GetTopPerformers)
			workouts.GET("/:scheduleId", workoutHandler.GetSchedule)
			workouts.PUT("/:scheduleId", staffOnly, workoutHandler.UpdateSchedule)
			workouts.PUT("/:scheduleId/progress", staffOnly, workoutHandler.UpdateProgress)
			workouts.POST("/:scheduleId/complete", staffOnly, workoutHandler.CompleteSchedule)
			workouts.POST("/:scheduleId/cancel", staffOnly, workoutHandler.CancelSchedule)
			workouts.POST("/:scheduleId/missed", staffOnly, workoutHandler.MarkMissed)
			workouts.POST("/:scheduleId/exercises", staffOnly, workoutHandler.AddExercise)
			workouts.POST("/:scheduleId/cardio", staffOnly, workoutHandler.AddCardio)
		}

		// --- Reports (admin) ---
		reports := protected.Group("/reports")
		reports.Use(adminOnly)
		{
			reports.GET("/revenue", reportHandler.GetRevenue)
			reports.GET("/membership", reportHandler.GetMembership)
			reports.GET("/attendance", reportHandler.GetAttendance)
			reports.GET("/performance", reportHandler.GetPerformance)
			reports.GET("/trainers", reportHandler.GetTrainerPerformance)
			reports.GET("/dashboard", reportHandler.GetDashboard)
			reports.POST("/revenue/export", reportHandler.ExportRevenue)
			reports.POST("/membership/export", reportHandler.ExportMembership)
		}

		// --- Subscription plans ---
		plans := protected.Group("/plans")
		{
			plans.GET("", reportHandler.ListPlans)
			plans.POST("", adminOnly, reportHandler.CreatePlan)
		}
	}
}
