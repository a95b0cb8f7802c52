package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	shareTokenLength   = 8
	shareTokenAttempts = 5
)

type ConfigBoardService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewConfigBoardService(db *gorm.DB, activity *ActivityService) *ConfigBoardService {
	return &ConfigBoardService{db: db, activity: activity}
}

type CreateConfigBoardRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Content  *string `json:"content"`
	IsPublic bool    `json:"is_public"`
}

type UpdateConfigBoardRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"is_public"`
}

// ShareResult is what the client needs to hand out a public link.
type ShareResult struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}

func (s *ConfigBoardService) List(ctx context.Context, userID, projectID uint) ([]models.ConfigBoard, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeProject(db, projectID, userID, loadOpts{}); err != nil {
		return nil, err
	}
	var boards []models.ConfigBoard
	err := db.Where("project_id = ?", projectID).Order("id ASC").Find(&boards).Error
	return boards, err
}

func (s *ConfigBoardService) Create(ctx context.Context, userID, projectID uint, req *CreateConfigBoardRequest) (*models.ConfigBoard, error) {
	board := models.ConfigBoard{
		Name:      req.Name,
		Content:   "{}",
		ProjectID: projectID,
		IsPublic:  req.IsPublic,
	}
	if req.Content != nil {
		board.Content = *req.Content
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := authorizeProject(tx, projectID, userID, loadOpts{}); err != nil {
			return err
		}
		if err := tx.Create(&board).Error; err != nil {
			return fmt.Errorf("create config board: %w", err)
		}
		return s.activity.Record(tx, projectID, actor(userID), "Created config board: "+board.Name, "")
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *ConfigBoardService) Update(ctx context.Context, userID, boardID uint, req *UpdateConfigBoardRequest) (*models.ConfigBoard, error) {
	var board *models.ConfigBoard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if board, err = s.authorize(tx, userID, boardID); err != nil {
			return err
		}
		if req.Name != nil {
			board.Name = *req.Name
		}
		if req.Content != nil {
			board.Content = *req.Content
		}
		if req.IsPublic != nil {
			board.IsPublic = *req.IsPublic
		}
		return tx.Save(board).Error
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (s *ConfigBoardService) Delete(ctx context.Context, userID, boardID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		board, err := s.authorize(tx, userID, boardID)
		if err != nil {
			return err
		}
		if err := tx.Delete(board).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, board.ProjectID, actor(userID), "Deleted config board: "+board.Name, "")
	})
}

// Share makes the board public under a freshly generated token. Every call
// replaces the previous token, so older links stop working.
func (s *ConfigBoardService) Share(ctx context.Context, userID, boardID uint) (*ShareResult, error) {
	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		board, err := s.authorize(tx, userID, boardID)
		if err != nil {
			return err
		}
		if token, err = newShareToken(tx); err != nil {
			return err
		}
		return tx.Model(board).Updates(map[string]interface{}{
			"share_token": token,
			"is_public":   true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &ShareResult{ShareToken: token, ShareURL: "/shared/" + token}, nil
}

// GetShared looks a board up by token without authentication. Boards that
// are not public are reported as missing.
func (s *ConfigBoardService) GetShared(ctx context.Context, token string) (*models.ConfigBoard, error) {
	var board models.ConfigBoard
	err := s.db.WithContext(ctx).
		Where("share_token = ? AND is_public = ?", token, true).
		First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Config not found or not public")
		}
		return nil, err
	}
	return &board, nil
}

func (s *ConfigBoardService) authorize(tx *gorm.DB, userID, boardID uint) (*models.ConfigBoard, error) {
	var board models.ConfigBoard
	if err := tx.First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Config not found")
		}
		return nil, err
	}
	if _, err := authorizeProject(tx, board.ProjectID, userID, loadOpts{}); err != nil {
		return nil, err
	}
	return &board, nil
}

// newShareToken returns an unused 8-character token.
func newShareToken(tx *gorm.DB) (string, error) {
	for i := 0; i < shareTokenAttempts; i++ {
		token := uuid.NewString()[:shareTokenLength]
		var count int64
		if err := tx.Model(&models.ConfigBoard{}).Where("share_token = ?", token).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", errors.New("could not generate a unique share token")
}
