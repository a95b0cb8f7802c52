package main

import (
	"context"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/handlers"
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/internal/utils"
	"github.com/Yokesh17/Project--Management/pkg/logger"
)

// appServices holds the long-lived services and the handlers built on them.
type appServices struct {
	storage       services.FileStorage
	taskQueue     services.TaskQueue
	worker        *services.Worker
	notifications *services.NotificationService
	limiters      []*middleware.RateLimiter

	authHandler         *handlers.AuthHandler
	projectHandler      *handlers.ProjectHandler
	memberHandler       *handlers.MemberHandler
	stageHandler        *handlers.StageHandler
	taskHandler         *handlers.TaskHandler
	attachmentHandler   *handlers.AttachmentHandler
	commentHandler      *handlers.CommentHandler
	configHandler       *handlers.ConfigBoardHandler
	notificationHandler *handlers.NotificationHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes the database, storage, cleanup queue, schedulers and
// every service.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database, logger.IsDebug()); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	storage, err := services.NewStorage(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize %s storage: %v", cfg.Storage.Driver, err)
	}
	cleanup := services.NewFileCleanupProcessor(storage)

	// Uses Redis if enabled, otherwise sync mode
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(cleanup)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		if worker = services.NewWorker(&cfg.Redis); worker != nil {
			worker.SetProcessor(cleanup)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start cleanup worker")
				worker = nil
			}
		}
	}

	activity := services.NewActivityService(db)
	notifications := services.NewNotificationService(db)
	if err := notifications.StartCleanupScheduler(cfg.Notification.CleanupCron, cfg.Notification.RetentionDays); err != nil {
		logger.Warn().Err(err).Msg("Notification cleanup not scheduled")
	}

	return &appServices{
		storage:       storage,
		taskQueue:     taskQueue,
		worker:        worker,
		notifications: notifications,

		authHandler:         handlers.NewAuthHandler(services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)),
		projectHandler:      handlers.NewProjectHandler(services.NewProjectService(db, activity, taskQueue), activity),
		memberHandler:       handlers.NewMemberHandler(services.NewMemberService(db, activity, notifications)),
		stageHandler:        handlers.NewStageHandler(services.NewStageService(db, activity, taskQueue)),
		taskHandler:         handlers.NewTaskHandler(services.NewTaskService(db, activity, notifications, taskQueue)),
		attachmentHandler:   handlers.NewAttachmentHandler(services.NewAttachmentService(db, storage, activity, taskQueue)),
		commentHandler:      handlers.NewCommentHandler(services.NewCommentService(db, activity, notifications)),
		configHandler:       handlers.NewConfigBoardHandler(services.NewConfigBoardService(db, activity)),
		notificationHandler: handlers.NewNotificationHandler(notifications),
		healthHandler:       handlers.NewHealthHandler(db, taskQueue, cfg.Storage.Driver),
	}
}

// shutdown stops the schedulers and drains the cleanup queue.
func (s *appServices) shutdown() {
	s.notifications.StopCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	for _, l := range s.limiters {
		l.Stop()
	}

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
