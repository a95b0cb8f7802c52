package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeFileCleanup = "attachment:cleanup"
)

// FileCleanupTask asks for stored attachment files to be removed after the
// rows that referenced them are gone.
type FileCleanupTask struct {
	Paths  []string `json:"paths"`
	Reason string   `json:"reason"` // e.g. "project 12 deleted"
}

// TaskQueue defines the interface for background file cleanup
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *FileCleanupTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// InitTaskQueue picks the queue for cfg: asynq when Redis is enabled and
// reachable, the in-process queue otherwise.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	if !cfg.Redis.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(&cfg.Redis)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
	return queue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)

	client := asynq.NewClient(redisOpt)

	// Ping Redis through the inspector before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (q *AsyncQueue) Enqueue(task *FileCleanupTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeFileCleanup, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Int("files", len(task.Paths)).Msg("[AsyncQueue] Cleanup enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue in-process (no Redis)
type SyncQueue struct {
	processor func(context.Context, *FileCleanupTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles enqueued tasks
func (q *SyncQueue) SetProcessor(processor func(context.Context, *FileCleanupTask) error) {
	q.processor = processor
}

// Enqueue hands the task to the processor on a new goroutine so the request
// that triggered it is not held up by storage I/O.
func (q *SyncQueue) Enqueue(task *FileCleanupTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, cleanup of %d files dropped", len(task.Paths))
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Error().Err(err).Str("reason", task.Reason).Msg("[SyncQueue] Cleanup failed")
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for cleanups that are still running.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}

// enqueueCleanup schedules removal of files whose rows were already deleted.
// The owning transaction has committed by now, so failures are only logged.
func enqueueCleanup(queue TaskQueue, paths []string, reason string) {
	if queue == nil || len(paths) == 0 {
		return
	}
	if err := queue.Enqueue(&FileCleanupTask{Paths: paths, Reason: reason}); err != nil {
		logger.Error().Err(err).Str("reason", reason).Strs("paths", paths).Msg("[TaskQueue] Failed to enqueue file cleanup")
	}
}
