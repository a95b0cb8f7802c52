package services

import (
	"context"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"gorm.io/gorm"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record appends one entry to a project's log. Pass the caller's transaction
// as tx so the entry commits or rolls back with the mutation it describes;
// a nil tx writes through the service's own handle. Empty details are stored
// as NULL and a nil actorID marks a system action.
func (s *ActivityService) Record(tx *gorm.DB, projectID uint, actorID *uint, action, details string) error {
	if tx == nil {
		tx = s.db
	}
	entry := models.ActivityLog{
		ProjectID: projectID,
		UserID:    actorID,
		Action:    action,
	}
	if details != "" {
		entry.Details = &details
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record activity %q: %w", action, err)
	}
	return nil
}

// ListByProject returns the project's log in insertion order. Any member may read it.
func (s *ActivityService) ListByProject(ctx context.Context, userID, projectID uint) ([]models.ActivityLog, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeProject(db, projectID, userID, loadOpts{}); err != nil {
		return nil, err
	}

	var logs []models.ActivityLog
	if err := db.Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func actor(id uint) *uint {
	return &id
}
