package models

import "time"

const (
	NotificationInfo    = "INFO"
	NotificationWarning = "WARNING"
	NotificationSuccess = "SUCCESS"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_notifications_user_read;not null" json:"user_id"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	IsRead    bool      `gorm:"index:idx_notifications_user_read;default:false" json:"is_read"`
	Type      string    `gorm:"size:20;default:INFO" json:"type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// ActivityLog is an append-only audit line for a project.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Details   *string   `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
