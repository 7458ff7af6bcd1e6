package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// User is a local account. Active users are offered as grantees.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	IsRoot   bool `gorm:"default:false" json:"is_root"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	Teams []Team `gorm:"many2many:user_teams;" json:"teams,omitempty"`

	LastLoginAt *time.Time     `json:"last_login_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// GRN returns the resource name the user is granted under.
func (u *User) GRN() string {
	return grn.New(grn.TypeUser, u.ID).String()
}

// DisplayName returns "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}
