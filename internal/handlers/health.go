package handlers

import (
	"net/http"

	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database and the cleanup queue.
type HealthHandler struct {
	db            *gorm.DB
	queue         services.TaskQueue
	storageDriver string
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, storageDriver string) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, storageDriver: storageDriver}
}

// CheckHealth returns 200 when the database answers, 503 otherwise.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "taskboard",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"storage":    h.storageDriver,
		},
	})
}
