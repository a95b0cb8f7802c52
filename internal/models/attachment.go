package models

import "time"

// Attachment belongs to exactly one of a task or a project.
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	FilePath   string    `gorm:"size:500;not null" json:"file_path"`
	Size       int64     `json:"size"`
	TaskID     *uint     `gorm:"index" json:"task_id"`
	ProjectID  *uint     `gorm:"index" json:"project_id"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Attachment) TableName() string { return "attachments" }

// Comment is a note on a task written by a user.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string { return "comments" }
