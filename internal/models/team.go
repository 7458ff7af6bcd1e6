package models

import "github.com/sonvt1710/graylog2-server/pkg/grn"

type Team struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`

	Users []User `gorm:"many2many:user_teams;" json:"users,omitempty"`
}

// GRN returns the resource name the team is granted under.
func (t *Team) GRN() string {
	return grn.New(grn.TypeTeam, t.ID).String()
}
