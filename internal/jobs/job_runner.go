package jobs

import (
	"database/sql"

	"compreg-backend/internal/compapi"
	"compreg-backend/internal/config"
	"compreg-backend/internal/logger"
	"compreg-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	db       *sql.DB
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Email        service.EmailService
	Registration service.RegistrationService
	Competitions compapi.CompetitionAPI
	Users        compapi.UserAPI
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:       db,
		services: services,
		config:   cfg,
	}
}

// Config exposes the runner's configuration to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllJobs runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAllJobs() {
	jr.PromoteWaitingLists()
	jr.SendPaymentReminders()
}
