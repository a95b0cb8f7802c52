package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskService runs the task lifecycle. Activity entries and notifications
// are written in the same transaction as the change that causes them.
type TaskService struct {
	db            *gorm.DB
	activity      *ActivityService
	notifications *NotificationService
	queue         TaskQueue
}

func NewTaskService(db *gorm.DB, activity *ActivityService, notifications *NotificationService, queue TaskQueue) *TaskService {
	return &TaskService{db: db, activity: activity, notifications: notifications, queue: queue}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uint      `json:"assignee_id"`
	StageID     *uint      `json:"stage_id"`
}

// UpdateTaskRequest is a partial update: nil fields are left alone. An
// AssigneeID or StageID of 0 clears the reference.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uint      `json:"assignee_id"`
	StageID     *uint      `json:"stage_id"`
}

type TaskListRequest struct {
	StageID *uint  `form:"stage_id"`
	Status  string `form:"status"`
}

func validateStatus(status string) error {
	if !models.ValidTaskStatus(status) {
		return response.NewValidation(fmt.Sprintf("invalid status %q", status))
	}
	return nil
}

func validatePriority(priority string) error {
	if !models.ValidTaskPriority(priority) {
		return response.NewValidation(fmt.Sprintf("invalid priority %q", priority))
	}
	return nil
}

// checkStage ensures stageID names a stage of projectID.
func checkStage(tx *gorm.DB, projectID, stageID uint) error {
	var count int64
	if err := tx.Model(&models.Stage{}).Where("id = ? AND project_id = ?", stageID, projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return response.NewNotFound("Stage not found")
	}
	return nil
}

// Create inserts a task, logs it and notifies the assignee.
func (s *TaskService) Create(ctx context.Context, userID, projectID uint, req *CreateTaskRequest) (*models.Task, error) {
	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   projectID,
		StageID:     req.StageID,
		AssigneeID:  req.AssigneeID,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if err := validateStatus(task.Status); err != nil {
		return nil, err
	}
	if err := validatePriority(task.Priority); err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusDone {
		now := time.Now()
		task.CompletedAt = &now
	}

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
		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
			return err
		}
		if err := CheckTaskQuota(plan, count).Err("tasks"); err != nil {
			return err
		}

		if task.StageID != nil {
			if err := checkStage(tx, projectID, *task.StageID); err != nil {
				return err
			}
		}
		if task.AssigneeID != nil {
			if _, err := findUser(tx, *task.AssigneeID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if err := s.activity.Record(tx, projectID, actor(userID), "Created task: "+task.Title, ""); err != nil {
			return err
		}
		if task.AssigneeID != nil && *task.AssigneeID != userID {
			return s.notifications.Notify(tx, *task.AssigneeID,
				fmt.Sprintf("You have been assigned to task '%s' in project '%s'", task.Title, project.Name),
				models.NotificationInfo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, task.ID)
}

// Update applies a partial update. Status and assignee side effects fire only
// when the stored value actually changes.
func (s *TaskService) Update(ctx context.Context, userID, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			return nil, err
		}
	}
	if req.Priority != nil {
		if err := validatePriority(*req.Priority); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, _, err := authorizeTask(tx, taskID, userID)
		if err != nil {
			return err
		}
		projectID := task.ProjectID

		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.DueDate != nil {
			task.DueDate = req.DueDate
		}

		if req.StageID != nil {
			if *req.StageID == 0 {
				task.StageID = nil
			} else {
				if err := checkStage(tx, projectID, *req.StageID); err != nil {
					return err
				}
				task.StageID = req.StageID
			}
		}

		if req.Status != nil && *req.Status != task.Status {
			previous := task.Status
			task.Status = *req.Status
			switch {
			case task.Status == models.TaskStatusDone:
				now := time.Now()
				task.CompletedAt = &now
			case previous == models.TaskStatusDone:
				task.CompletedAt = nil
			}
			if err := s.activity.Record(tx, projectID, actor(userID),
				fmt.Sprintf("Moved task '%s' to %s", task.Title, task.Status), ""); err != nil {
				return err
			}
		}

		if req.AssigneeID != nil {
			if err := s.reassign(tx, task, *req.AssigneeID, userID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return fmt.Errorf("save task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, taskID)
}

// reassign moves task to assigneeID (0 unassigns). Setting the current
// assignee again does nothing.
func (s *TaskService) reassign(tx *gorm.DB, task *models.Task, assigneeID, userID uint) error {
	if assigneeID == 0 {
		if task.AssigneeID == nil {
			return nil
		}
		task.AssigneeID = nil
		return s.activity.Record(tx, task.ProjectID, actor(userID),
			fmt.Sprintf("Unassigned task '%s'", task.Title), "")
	}
	if task.AssigneeID != nil && *task.AssigneeID == assigneeID {
		return nil
	}

	assignee, err := findUser(tx, assigneeID)
	if err != nil {
		return err
	}
	task.AssigneeID = &assignee.ID

	if assignee.ID != userID {
		if err := s.notifications.Notify(tx, assignee.ID,
			fmt.Sprintf("You have been assigned to task '%s'", task.Title), models.NotificationInfo); err != nil {
			return err
		}
	}
	return s.activity.Record(tx, task.ProjectID, actor(userID),
		fmt.Sprintf("Assigned task '%s' to %s", task.Title, assignee.Email), "")
}

// Delete removes the task with its comments and attachments. Any project
// participant may delete.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uint) error {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, _, err := authorizeTask(tx, taskID, userID)
		if err != nil {
			return err
		}
		if paths, err = models.DeleteTaskCascade(tx, task.ID); err != nil {
			return err
		}
		return s.activity.Record(tx, task.ProjectID, actor(userID), "Deleted task: "+task.Title, "")
	})
	if err != nil {
		return err
	}
	enqueueCleanup(s.queue, paths, fmt.Sprintf("task %d deleted", taskID))
	return nil
}

// Get returns the task with its assignee, attachments and comments.
func (s *TaskService) Get(ctx context.Context, userID, taskID uint) (*models.Task, error) {
	if _, _, err := authorizeTask(s.db.WithContext(ctx), taskID, userID); err != nil {
		return nil, err
	}
	var task models.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Attachments").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Comments.User").
		First(&task, taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns a project's tasks, optionally narrowed to a stage or status.
func (s *TaskService) List(ctx context.Context, userID, projectID uint, req *TaskListRequest) ([]models.Task, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeProject(db, projectID, userID, loadOpts{}); err != nil {
		return nil, err
	}

	query := db.Preload("Assignee").Where("project_id = ?", projectID)
	if req != nil {
		if req.StageID != nil {
			query = query.Where("stage_id = ?", *req.StageID)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
	}

	var tasks []models.Task
	err := query.Order("id ASC").Find(&tasks).Error
	return tasks, err
}

func (s *TaskService) reload(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Preload("Assignee").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Task not found")
		}
		return nil, err
	}
	return &task, nil
}
