package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectService struct {
	db       *gorm.DB
	activity *ActivityService
	queue    TaskQueue
}

func NewProjectService(db *gorm.DB, activity *ActivityService, queue TaskQueue) *ProjectService {
	return &ProjectService{db: db, activity: activity, queue: queue}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

// Create makes the caller the owner of a new project, subject to the
// caller's plan. The owner row is locked so two concurrent creations cannot
// both pass the quota check.
func (s *ProjectService) Create(ctx context.Context, userID uint, req *CreateProjectRequest) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewUnauthorized("User not found")
			}
			return err
		}

		var owned int64
		if err := tx.Model(&models.Project{}).Where("owner_id = ?", userID).Count(&owned).Error; err != nil {
			return err
		}
		if decision := CheckProjectQuota(owner.Plan, owned); !decision.Allowed {
			logger.Info().Uint("user_id", userID).Str("plan", owner.Plan).Int("limit", decision.Limit).
				Msg("[Project] Creation blocked by plan quota")
			return decision.Err("projects")
		}

		project = models.Project{
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     userID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return s.activity.Record(tx, project.ID, actor(userID), "Project initialized", "")
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByID returns the project with its board contents for any owner or member.
func (s *ProjectService) GetByID(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeProject(db, projectID, userID, loadOpts{}); err != nil {
		return nil, err
	}

	var project models.Project
	err := db.Preload("Owner").
		Preload("Members").
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Tasks.Assignee").
		Preload("Attachments").
		Preload("Configs").
		First(&project, projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser returns owned and joined projects, newest first.
func (s *ProjectService) ListForUser(ctx context.Context, userID uint) ([]models.Project, error) {
	db := s.db.WithContext(ctx)
	joined := db.Table("project_members").Select("project_id").Where("user_id = ?", userID)

	var projects []models.Project
	err := db.Preload("Owner").
		Preload("Members").
		Where("owner_id = ?", userID).
		Or("id IN (?)", joined).
		Order("created_at DESC, id DESC").
		Find(&projects).Error
	return projects, err
}

// Delete removes the project and everything it owns. Owner only.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID uint) error {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := authorizeProject(tx, projectID, userID, loadOpts{manage: true, denied: "Only the project owner can delete the project"})
		if err != nil {
			return err
		}
		paths, err = models.DeleteProjectCascade(tx, project)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info().Uint("project_id", projectID).Uint("user_id", userID).Int("files", len(paths)).Msg("[Project] Deleted")
	enqueueCleanup(s.queue, paths, fmt.Sprintf("project %d deleted", projectID))
	return nil
}
