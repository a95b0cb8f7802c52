package services

import (
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CanAccess reports whether userID owns the project or is one of its members.
// project.Members must be loaded.
func CanAccess(userID uint, project *models.Project) bool {
	if project == nil {
		return false
	}
	return project.OwnerID == userID || project.HasMember(userID)
}

// CanManage reports whether userID may run owner-only operations on the project.
func CanManage(userID uint, project *models.Project) bool {
	return project != nil && project.OwnerID == userID
}

type loadOpts struct {
	lock   bool
	manage bool
	denied string
}

// authorizeProject loads a project with its members and checks the caller
// against it. With lock set the project row is held FOR UPDATE until the
// transaction ends.
func authorizeProject(tx *gorm.DB, projectID, userID uint, opts loadOpts) (*models.Project, error) {
	query := tx.Preload("Members")
	if opts.lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var project models.Project
	if err := query.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}

	allowed := CanAccess(userID, &project)
	if opts.manage {
		allowed = CanManage(userID, &project)
	}
	if !allowed {
		msg := opts.denied
		if msg == "" {
			msg = "Not authorized"
		}
		return nil, response.NewForbidden(msg)
	}
	return &project, nil
}

// authorizeTask loads a task and checks access against its project.
func authorizeTask(tx *gorm.DB, taskID, userID uint) (*models.Task, *models.Project, error) {
	var task models.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("Task not found")
		}
		return nil, nil, fmt.Errorf("load task %d: %w", taskID, err)
	}
	project, err := authorizeProject(tx, task.ProjectID, userID, loadOpts{})
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

func findUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}
