package main

import (
	"alcyxob/gym-manager/internal/api"
	"alcyxob/gym-manager/internal/config"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/repository/flatfile"
	"alcyxob/gym-manager/internal/repository/mongo"
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Gym Manager API
// @version 1.0
// @description API for managing gym members, trainers, attendance, workout schedules and reports.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Gym Manager Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (storage=%s, reports=%s).", cfg.Storage.Driver, cfg.Reports.Target)

	// --- Repositories ---
	repos, closeRepos, err := openRepositories(cfg)
	if err != nil {
		log.Fatalf("FATAL: Could not open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer closeRepos()

	// --- Report Storage ---
	reportStorage, err := openReportStorage(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize %s report storage: %v", cfg.Reports.Target, err)
	}

	// --- Managers ---
	log.Println("Initializing managers...")
	users := service.NewUserManager(repos, time.Now)
	attendance := service.NewAttendanceManager(repos.Attendance, users, reportStorage, time.Now)
	workouts := service.NewWorkoutManager(repos.Schedules, users, time.Now)
	reports := service.NewReportManager(repos.Plans, users, attendance, workouts, reportStorage, time.Now)
	authService := service.NewAuthService(users, cfg.JWT.Secret, cfg.JWT.Expiration)

	ensureDefaultAdmin(users, cfg.Gym)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:          authService,
		Users:         users,
		Attendance:    attendance,
		Workouts:      workouts,
		Reports:       reports,
		ReportStorage: reportStorage,
		TopPerformers: cfg.Gym.TopPerformers,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// openRepositories returns the configured backend and a func releasing it.
func openRepositories(cfg config.Config) (repository.Repositories, func(), error) {
	if cfg.Storage.Driver == config.DriverFlatFile {
		repos, err := flatfile.NewRepositories(cfg.Storage.DataDir)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		return repos, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, closeDB, err := mongo.Open(ctx, cfg.Database)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	repos := mongo.NewRepositories(db)

	log.Println("Ensuring database indexes...")
	if err := mongo.EnsureIndexes(ctx, repos); err != nil {
		log.Printf("WARN: Index creation failed: %v", err)
	}
	return repos, closeDB, nil
}

func openReportStorage(cfg config.Config) (storage.ReportStorage, error) {
	if cfg.Reports.Target == config.ReportsS3 {
		return storage.NewS3Storage(cfg.S3)
	}
	return storage.NewLocalStorage(cfg.Reports.Dir)
}

// ensureDefaultAdmin creates the configured admin when the store has none.
func ensureDefaultAdmin(users service.UserManager, gym config.GymConfig) {
	if gym.AdminPassword == "" {
		log.Println("WARN: gym.admin_password is not set, skipping default admin creation")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	admin, err := users.EnsureDefaultAdmin(ctx, service.NewAdminInput{
		UserID:     gym.AdminID,
		Name:       "System Administrator",
		Email:      "admin@gym.com",
		Phone:      "1234567890",
		Password:   gym.AdminPassword,
		AdminLevel: "Super Admin",
	})
	if err != nil {
		log.Fatalf("FATAL: Could not create default admin: %v", err)
	}
	if admin != nil {
		log.Printf("INFO: Default admin %s created", admin.UserID)
	}
}
