package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const maxNotificationLength = 500

type NotificationService struct {
	db            *gorm.DB
	cronScheduler *cron.Cron
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify inserts an unread notification for userID. Run it on the caller's
// transaction to couple it with the triggering write; nil tx uses the
// service's own handle. An empty ntype means INFO.
func (s *NotificationService) Notify(tx *gorm.DB, userID uint, content, ntype string) error {
	if tx == nil {
		tx = s.db
	}
	if ntype == "" {
		ntype = models.NotificationInfo
	}
	n := models.Notification{
		UserID:  userID,
		Content: truncateRunes(content, maxNotificationLength),
		Type:    ntype,
	}
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("notify user %d: %w", userID, err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one notification as read. Someone else's notification is
// reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("Notification not found")
			}
			return err
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		return tx.Model(&n).Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// PurgeRead deletes read notifications created before cutoff. Unread ones
// are kept regardless of age.
func (s *NotificationService) PurgeRead(cutoff time.Time) (int64, error) {
	result := s.db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartCleanupScheduler purges read notifications older than retentionDays
// on the given cron spec. A non-positive retention disables the job.
func (s *NotificationService) StartCleanupScheduler(spec string, retentionDays int) error {
	if retentionDays <= 0 {
		logger.Infof("[Notification] Cleanup disabled (retention_days <= 0)")
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, func() {
		s.runCleanup(retentionDays)
	}); err != nil {
		return fmt.Errorf("add notification cleanup job %q: %w", spec, err)
	}
	s.cronScheduler = scheduler
	s.cronScheduler.Start()

	logger.Info().Str("cron", spec).Int("retention_days", retentionDays).Msg("[Notification] Cleanup scheduled")
	return nil
}

func (s *NotificationService) StopCleanupScheduler() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
	}
}

func (s *NotificationService) runCleanup(retentionDays int) {
	deleted, err := s.PurgeRead(time.Now().AddDate(0, 0, -retentionDays))
	if err != nil {
		logger.Error().Err(err).Msg("[Notification] Failed to purge read notifications")
		return
	}
	if deleted > 0 {
		logger.Infof("[Notification] Purged %d read notifications older than %d days", deleted, retentionDays)
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
