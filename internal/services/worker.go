package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/hibiken/asynq"
)

// Worker consumes cleanup tasks from Redis
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *FileCleanupTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor func(context.Context, *FileCleanupTask) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeFileCleanup, w.handleCleanupTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleCleanupTask(ctx context.Context, t *asynq.Task) error {
	var task FileCleanupTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		// a malformed payload will never succeed
		return fmt.Errorf("decode cleanup task: %v: %w", err, asynq.SkipRetry)
	}

	if w.processor == nil {
		logger.Warnf("[Worker] No processor set")
		return nil
	}

	return w.processor(ctx, &task)
}

// NewFileCleanupProcessor deletes every path in a task from storage. Paths
// that fail are reported together so the queue retries the task.
func NewFileCleanupProcessor(storage FileStorage) func(context.Context, *FileCleanupTask) error {
	return func(ctx context.Context, task *FileCleanupTask) error {
		var errs []error
		for _, path := range task.Paths {
			if err := storage.Delete(ctx, path); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
			}
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
		logger.Debug().Int("files", len(task.Paths)).Str("reason", task.Reason).Msg("[Cleanup] Files removed")
		return nil
	}
}
