package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "compreg-backend/internal/api/http"
	"compreg-backend/internal/compapi"
	"compreg-backend/internal/config"
	"compreg-backend/internal/intake"
	"compreg-backend/internal/jobs"
	"compreg-backend/internal/logger"
	"compreg-backend/internal/payment"
	"compreg-backend/internal/repository/postgres"
	"compreg-backend/internal/scheduler"
	"compreg-backend/internal/security"
	"compreg-backend/internal/service"
	"compreg-backend/internal/waitinglist"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Competition Registration Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Collaborator Clients
	competitionClient := compapi.NewCompetitionClient(cfg.Collaborators.CompetitionServiceURL, cfg.Collaborators.ServiceToken)
	userClient := compapi.NewUserClient(cfg.Collaborators.UserServiceURL, cfg.Collaborators.ServiceToken)

	// Initialize Payment Gateway
	var gateway payment.Gateway
	switch cfg.Payment.Type {
	case "", "mock":
		logger.Info("Using mock payment gateway")
		gateway = payment.NewMockGateway()
	default:
		logger.Error("Unsupported payment gateway type", "type", cfg.Payment.Type)
		log.Fatalf("Payment gateway type '%s' not yet implemented", cfg.Payment.Type)
	}

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.Email.Enabled {
		emailSvc = service.NewSendGridEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		logger.Info("Email notifications disabled")
		emailSvc = service.NewNoopEmailService()
	}

	// Initialize Services
	waitingList := waitinglist.NewManager(store.WaitingListRepository)
	registrationSvc := service.NewRegistrationService(
		store,
		store.RegistrationRepository,
		store.HistoryRepository,
		store.CounterRepository,
		waitingList,
		competitionClient,
		userClient,
		gateway,
		emailSvc,
	)

	// Initialize Intake Pipeline
	pipeline := intake.NewPipeline(registrationSvc, intake.Options{
		QueueDepth:  cfg.Intake.QueueDepth,
		MaxAttempts: cfg.Intake.MaxAttempts,
		DedupWindow: time.Duration(cfg.Intake.DedupWindowMinutes) * time.Minute,
	})

	// Initialize Scheduler
	jobRunner := jobs.NewJobRunner(db, &jobs.Services{
		Email:        emailSvc,
		Registration: registrationSvc,
		Competitions: competitionClient,
		Users:        userClient,
	}, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()

	// Initialize HTTP API
	router := mux.NewRouter()
	handler := httpapi.NewRegistrationHandler(registrationSvc, pipeline, userClient)
	auth := httpapi.NewAuthMiddleware(tokenManager)
	httpapi.RegisterRegistrationRoutes(router, handler, auth)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cronScheduler.Stop()
	pipeline.Stop()
	if err := server.Close(); err != nil {
		logger.Error("Failed to close HTTP server", "error", err)
	}
	logger.Info("Shutdown complete")
}
