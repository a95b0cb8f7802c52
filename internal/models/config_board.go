package models

import "time"

// ConfigBoard is a named JSON document attached to a project. Content is
// stored as-is and never parsed server side.
type ConfigBoard struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Content    string    `gorm:"type:text" json:"content"`
	ProjectID  uint      `gorm:"index;not null" json:"project_id"`
	IsPublic   bool      `gorm:"default:false" json:"is_public"`
	ShareToken *string   `gorm:"uniqueIndex;size:100" json:"share_token"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ConfigBoard) TableName() string { return "config_boards" }
