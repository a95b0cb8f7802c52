package main

import (
	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))

	// Login and the public board lookup are throttled separately
	loginLimiter := middleware.NewRateLimiterFromConfig("login", &cfg.RateLimit)
	sharedLimiter := middleware.NewRateLimiterFromConfig("shared", &cfg.RateLimit)
	svc.limiters = append(svc.limiters, loginLimiter, sharedLimiter)

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", svc.authHandler.Signup)
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		api.GET("/shared/:token", sharedLimiter.Middleware(), svc.configHandler.GetShared)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.GET("/users/api-token", svc.authHandler.GetAPIToken)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.GET("/projects/:id/activity", svc.projectHandler.Activity)

			// Members
			protected.GET("/projects/:id/members", svc.memberHandler.List)
			protected.POST("/projects/:id/invite", svc.memberHandler.Invite)
			protected.DELETE("/projects/:id/members/:userId", svc.memberHandler.Remove)

			// Stages
			protected.POST("/projects/:id/stages", svc.stageHandler.Create)
			protected.DELETE("/stages/:id", svc.stageHandler.Delete)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.List)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.GET("/tasks/:id", svc.taskHandler.Get)
			protected.PATCH("/tasks/:id", svc.taskHandler.Update)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)

			// Attachments
			protected.POST("/tasks/:id/attachments", svc.attachmentHandler.UploadToTask)
			protected.POST("/projects/:id/attachments", svc.attachmentHandler.UploadToProject)
			protected.GET("/attachments/:id/download", svc.attachmentHandler.Download)
			protected.DELETE("/attachments/:id", svc.attachmentHandler.Delete)

			// Comments
			protected.GET("/tasks/:id/comments", svc.commentHandler.List)
			protected.POST("/tasks/:id/comments", svc.commentHandler.Create)
			protected.DELETE("/comments/:id", svc.commentHandler.Delete)

			// Config boards
			protected.GET("/projects/:id/configs", svc.configHandler.List)
			protected.POST("/projects/:id/configs", svc.configHandler.Create)
			protected.PUT("/configs/:id", svc.configHandler.Update)
			protected.DELETE("/configs/:id", svc.configHandler.Delete)
			protected.POST("/configs/:id/share", svc.configHandler.Share)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/notifications/unread-count", svc.notificationHandler.UnreadCount)
			protected.PUT("/notifications/read-all", svc.notificationHandler.MarkAllRead)
			protected.PUT("/notifications/:id/read", svc.notificationHandler.MarkRead)
		}
	}
}
