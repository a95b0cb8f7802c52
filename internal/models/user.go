package models

import "time"

const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User is an account. Plan is a free-form label ("free", "paid",
// "custom_<N>") read by the quota checks.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName  string     `gorm:"size:255" json:"full_name"`
	Password  string     `gorm:"size:255" json:"-"` // empty for LDAP users
	AuthType  string     `gorm:"size:20;default:local" json:"auth_type"`
	Plan      string     `gorm:"size:50;default:free" json:"plan"`
	APIToken  string     `gorm:"size:500" json:"-"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	OwnedProjects  []Project `gorm:"foreignKey:OwnerID" json:"-"`
	JoinedProjects []Project `gorm:"many2many:project_members;" json:"-"`
}

func (User) TableName() string { return "users" }

// DisplayName is the full name when set, otherwise the email.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
