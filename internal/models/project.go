package models

import "time"

// Project is the top-level container. The owner is never stored in Members.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner       *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members     []User        `gorm:"many2many:project_members;" json:"members,omitempty"`
	Stages      []Stage       `gorm:"foreignKey:ProjectID" json:"stages,omitempty"`
	Tasks       []Task        `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Attachments []Attachment  `gorm:"foreignKey:ProjectID" json:"attachments,omitempty"`
	Configs     []ConfigBoard `gorm:"foreignKey:ProjectID" json:"configs,omitempty"`
}

func (Project) TableName() string { return "projects" }

// HasMember reports whether userID is in the loaded Members slice.
func (p *Project) HasMember(userID uint) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Stage is a named column within a project board.
type Stage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`

	Tasks []Task `gorm:"foreignKey:StageID" json:"tasks,omitempty"`
}

func (Stage) TableName() string { return "stages" }
