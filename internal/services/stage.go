package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
)

type StageService struct {
	db       *gorm.DB
	activity *ActivityService
	queue    TaskQueue
}

func NewStageService(db *gorm.DB, activity *ActivityService, queue TaskQueue) *StageService {
	return &StageService{db: db, activity: activity, queue: queue}
}

type CreateStageRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// ownerPlan reads the plan that governs a project's stage and task caps.
func ownerPlan(tx *gorm.DB, project *models.Project) (string, error) {
	owner, err := findUser(tx, project.OwnerID)
	if err != nil {
		return "", err
	}
	return owner.Plan, nil
}

// Create adds a stage for any project participant. The project row is
// locked for the count-then-insert.
func (s *StageService) Create(ctx context.Context, userID, projectID uint, req *CreateStageRequest) (*models.Stage, error) {
	var stage models.Stage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := authorizeProject(tx, projectID, userID, loadOpts{lock: true})
		if err != nil {
			return err
		}

		plan, err := ownerPlan(tx, project)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Stage{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
			return err
		}
		if err := CheckStageQuota(plan, count).Err("stages"); err != nil {
			return err
		}

		stage = models.Stage{Name: req.Name, ProjectID: projectID}
		if err := tx.Create(&stage).Error; err != nil {
			return fmt.Errorf("create stage: %w", err)
		}
		return s.activity.Record(tx, projectID, actor(userID), "Created stage: "+stage.Name, "")
	})
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// Delete removes a stage together with its tasks. Owner only.
func (s *StageService) Delete(ctx context.Context, userID, stageID uint) error {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := tx.First(&stage, stageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("Stage not found")
			}
			return err
		}
		if _, err := authorizeProject(tx, stage.ProjectID, userID, loadOpts{manage: true, denied: "Only the project owner can delete stages"}); err != nil {
			return err
		}

		var err error
		if paths, err = models.DeleteStageCascade(tx, stage.ID); err != nil {
			return err
		}
		return s.activity.Record(tx, stage.ProjectID, actor(userID), "Deleted stage: "+stage.Name, "")
	})
	if err != nil {
		return err
	}
	enqueueCleanup(s.queue, paths, fmt.Sprintf("stage %d deleted", stageID))
	return nil
}
