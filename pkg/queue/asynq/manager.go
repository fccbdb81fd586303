package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleetassign/internal/model"
	"fleetassign/pkg/config"
	"fleetassign/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeAssignmentRun = "assignment:run"

	// A single shared task id keeps concurrent triggers from piling up:
	// one pending run serves them all.
	assignmentRunTaskID = "assignment-run"
)

// BatchRunner processes a batch of due assignment queue items. Implemented
// by the assignment service; declared here to keep the dependency pointing
// from the queue layer into the service, not the other way round.
type BatchRunner interface {
	RunBatch(ctx context.Context, maxItems int) (*model.BatchResult, error)
}

// runPayload is the task payload for an assignment run.
type runPayload struct {
	MaxItems int `json:"max_items"`
}

// Manager queue manager
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewManager creates queue manager
func NewManager(cfg *config.Config) (*Manager, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Second
			},
		},
	)

	mux := asynq.NewServeMux()

	return &Manager{
		client: client,
		server: server,
		mux:    mux,
	}, nil
}

// EnqueueRun enqueues an assignment batch run. Safe to call repeatedly: if a
// run is already pending, the conflict is swallowed and the pending run
// covers this trigger too.
func (m *Manager) EnqueueRun(ctx context.Context) error {
	payload, err := json.Marshal(runPayload{})
	if err != nil {
		return fmt.Errorf("failed to marshal run payload: %w", err)
	}

	task := asynq.NewTask(TypeAssignmentRun, payload)

	opts := []asynq.Option{
		asynq.TaskID(assignmentRunTaskID),
		asynq.Timeout(time.Duration(config.GlobalConfig.Queue.TaskTimeout) * time.Second),
		// A failed run is not retried by asynq; the item-level retry state
		// lives in MySQL and the next scheduled run picks it up.
		asynq.MaxRetry(0),
	}

	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.DebugCtx(ctx, "assignment run already pending, trigger coalesced")
			return nil
		}
		return fmt.Errorf("failed to enqueue assignment run: %w", err)
	}

	logger.InfoCtx(ctx, "assignment run enqueued, queue: %s", info.Queue)
	return nil
}

// RegisterBatchRunner wires the handler that executes assignment runs.
func (m *Manager) RegisterBatchRunner(runner BatchRunner) {
	m.mux.HandleFunc(TypeAssignmentRun, func(ctx context.Context, task *asynq.Task) error {
		var payload runPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid run payload: %w", err)
		}

		result, err := runner.RunBatch(ctx, payload.MaxItems)
		if err != nil {
			logger.ErrorCtx(ctx, "assignment run failed: %v", err)
			return err
		}

		logger.InfoCtx(ctx, "assignment run done: processed=%d succeeded=%d failed=%d skipped=%d",
			result.Processed, result.Succeeded, result.Failed, result.Skipped)
		return nil
	})
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	return m.client.Close()
}

// GetPendingTaskCount retrieves pending task count
func (m *Manager) GetPendingTaskCount() (int, error) {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     config.GlobalConfig.Redis.Addr,
		Password: config.GlobalConfig.Redis.Password,
		DB:       config.GlobalConfig.Redis.DB,
	})
	defer inspector.Close()

	stats, err := inspector.GetQueueInfo("default")
	if err != nil {
		return 0, err
	}

	return stats.Pending, nil
}
