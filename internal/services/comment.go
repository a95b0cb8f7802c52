package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
)

type CommentService struct {
	db            *gorm.DB
	activity      *ActivityService
	notifications *NotificationService
}

func NewCommentService(db *gorm.DB, activity *ActivityService, notifications *NotificationService) *CommentService {
	return &CommentService{db: db, activity: activity, notifications: notifications}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create stores the comment and its activity entry in one transaction. The
// mention and assignee notifications are sent after commit; a failure there
// is logged and the comment stays.
func (s *CommentService) Create(ctx context.Context, userID, taskID uint, req *CreateCommentRequest) (*models.Comment, error) {
	var (
		comment models.Comment
		author  *models.User
		task    *models.Task
		project *models.Project
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if task, project, err = authorizeTask(tx, taskID, userID); err != nil {
			return err
		}
		if author, err = findUser(tx, userID); err != nil {
			return err
		}

		comment = models.Comment{Content: req.Content, TaskID: task.ID, UserID: userID}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return s.activity.Record(tx, project.ID, actor(userID), fmt.Sprintf("Commented on task '%s'", task.Title), "")
	})
	if err != nil {
		return nil, err
	}

	comment.User = author

	if err := s.fanOut(ctx, &comment, author, task, project); err != nil {
		logger.Warn().Err(err).Uint("comment_id", comment.ID).Uint("task_id", task.ID).
			Msg("[Comment] Notification fan-out failed")
	}
	return &comment, nil
}

// fanOut notifies mentioned participants, then the task assignee.
func (s *CommentService) fanOut(ctx context.Context, comment *models.Comment, author *models.User, task *models.Task, project *models.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := findUser(tx, project.OwnerID)
		if err != nil {
			return err
		}
		candidates := append([]models.User{*owner}, project.Members...)

		message := mentionMessage(author, task.Title)
		for _, u := range ResolveMentions(comment.Content, candidates, author.ID) {
			if err := s.notifications.Notify(tx, u.ID, message, models.NotificationInfo); err != nil {
				return err
			}
		}

		if task.AssigneeID != nil && *task.AssigneeID != author.ID {
			return s.notifications.Notify(tx, *task.AssigneeID,
				fmt.Sprintf("New comment on task '%s' by %s", task.Title, author.DisplayName()),
				models.NotificationInfo)
		}
		return nil
	})
}

// List returns a task's comments, oldest first, with their authors.
func (s *CommentService) List(ctx context.Context, userID, taskID uint) ([]models.Comment, error) {
	db := s.db.WithContext(ctx)
	if _, _, err := authorizeTask(db, taskID, userID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// Delete is allowed for the comment's author and for the project owner.
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("Comment not found")
			}
			return err
		}

		var task models.Task
		if err := tx.First(&task, comment.TaskID).Error; err != nil {
			return err
		}
		if comment.UserID != userID {
			if _, err := authorizeProject(tx, task.ProjectID, userID, loadOpts{manage: true}); err != nil {
				return err
			}
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, task.ProjectID, actor(userID), fmt.Sprintf("Deleted comment on task '%s'", task.Title), "")
	})
}
