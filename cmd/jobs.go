package main

import (
	"context"
	"fmt"
	"time"

	"fleetassign/internal/jobs"
	"fleetassign/internal/service"
	"fleetassign/pkg/logger"
	mysqlstore "fleetassign/pkg/store/mysql"
	redisstore "fleetassign/pkg/store/redis"

	"github.com/go-redis/redis/v8"
)

// initJobs registers the background jobs: the scheduled assignment batch run
// and the retention cleanup for terminal queue items and old audit entries.
func (app *Application) initJobs() error {
	if app.assignmentService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background task registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)

	batchInterval := time.Duration(app.config.Assignment.BatchInterval) * time.Second
	if batchInterval <= 0 {
		batchInterval = time.Minute
	}

	// Batch locks keep multiple replicas from processing the same queue
	// items concurrently. If Redis is unavailable the lock degrades to
	// single-instance mode; the conditional assignment write still guards
	// correctness either way.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}

	batchLock := redisstore.NewRedisBatchLock(redisClient, "assign:batch-lock")
	retentionLock := redisstore.NewRedisBatchLock(redisClient, "assign:retention-lock")

	manager.Register(newAssignmentBatchJob(batchInterval, app.assignmentService, batchLock))
	manager.Register(newRetentionCleanupJob(24*time.Hour, app.mysqlRepo, app.config.Assignment.RetentionDays, retentionLock))

	app.jobsManager = manager
	return nil
}

// assignmentBatchJob periodically drains the assignment queue.
type assignmentBatchJob struct {
	interval          time.Duration
	assignmentService *service.AssignmentService
	batchLock         redisstore.BatchLock
}

func newAssignmentBatchJob(interval time.Duration, svc *service.AssignmentService, lock redisstore.BatchLock) jobs.Job {
	return &assignmentBatchJob{
		interval:          interval,
		assignmentService: svc,
		batchLock:         lock,
	}
}

func (j *assignmentBatchJob) Name() string {
	return "assignment-batch"
}

func (j *assignmentBatchJob) Interval() time.Duration {
	return j.interval
}

func (j *assignmentBatchJob) Run(ctx context.Context) error {
	if j.assignmentService == nil {
		return fmt.Errorf("assignment service not configured")
	}

	// Try to acquire batch lock
	if j.batchLock != nil {
		acquired, err := j.batchLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running the assignment batch, skipping this cycle")
			return nil
		}
		defer j.batchLock.Unlock(ctx)
	}

	result, err := j.assignmentService.RunBatch(ctx, 0)
	if err != nil {
		return err
	}
	if result.Processed > 0 {
		logger.InfoCtx(ctx, "scheduled assignment batch: processed=%d succeeded=%d failed=%d skipped=%d",
			result.Processed, result.Succeeded, result.Failed, result.Skipped)
	}
	return nil
}

// retentionCleanupJob purges terminal queue items and audit log entries
// older than the retention window.
type retentionCleanupJob struct {
	interval      time.Duration
	repo          *mysqlstore.Repository
	retentionDays int
	batchLock     redisstore.BatchLock
}

func newRetentionCleanupJob(interval time.Duration, repo *mysqlstore.Repository, retentionDays int, lock redisstore.BatchLock) jobs.Job {
	return &retentionCleanupJob{
		interval:      interval,
		repo:          repo,
		retentionDays: retentionDays,
		batchLock:     lock,
	}
}

func (j *retentionCleanupJob) Name() string {
	return "assignment-retention-cleanup"
}

func (j *retentionCleanupJob) Interval() time.Duration {
	return j.interval
}

// AlignToInterval runs the cleanup at day boundaries instead of process
// start time, so restarts don't shift the purge window.
func (j *retentionCleanupJob) AlignToInterval() bool {
	return true
}

func (j *retentionCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return fmt.Errorf("repository not configured")
	}

	if j.batchLock != nil {
		acquired, err := j.batchLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running retention cleanup, skipping this cycle")
			return nil
		}
		defer j.batchLock.Unlock(ctx)
	}

	before := time.Now().AddDate(0, 0, -j.retentionDays)

	items, err := j.repo.Queue.CleanupOldItems(ctx, before)
	if err != nil {
		return fmt.Errorf("queue cleanup failed: %w", err)
	}

	entries, err := j.repo.AssignmentLog.CleanupOldEntries(ctx, before)
	if err != nil {
		return fmt.Errorf("audit log cleanup failed: %w", err)
	}

	if items > 0 || entries > 0 {
		logger.InfoCtx(ctx, "retention cleanup removed %d queue items and %d audit entries older than %s",
			items, entries, before.Format("2006-01-02"))
	}
	return nil
}
