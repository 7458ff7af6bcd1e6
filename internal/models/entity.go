package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// Entity is a shareable resource registered with the server.
type Entity struct {
	BaseModel

	GRN       string `gorm:"column:grn;type:varchar(255);uniqueIndex;not null" json:"grn"`
	Type      string `gorm:"type:varchar(64);not null;index" json:"type"`
	Title     string `gorm:"not null" json:"title"`
	CreatedBy string `gorm:"type:varchar(36);not null" json:"created_by"`

	Dependencies []EntityDependency `gorm:"foreignKey:EntityGRN;references:GRN" json:"dependencies,omitempty"`
}

// BeforeSave keeps the type column consistent with the GRN.
func (e *Entity) BeforeSave(tx *gorm.DB) error {
	parsed, err := grn.Parse(e.GRN)
	if err != nil {
		return err
	}
	e.GRN = parsed.String()
	e.Type = parsed.Type

	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return errors.New("entity: title is required")
	}
	return nil
}

// EntityDependency records that an entity relies on another one, e.g. a dashboard on a stream.
type EntityDependency struct {
	BaseModel

	EntityGRN     string `gorm:"column:entity_grn;type:varchar(255);not null;uniqueIndex:idx_entity_dependency,priority:1" json:"entity"`
	DependencyGRN string `gorm:"column:dependency_grn;type:varchar(255);not null;uniqueIndex:idx_entity_dependency,priority:2" json:"dependency"`
}

// BeforeSave rejects malformed and self-referencing dependencies.
func (d *EntityDependency) BeforeSave(tx *gorm.DB) error {
	if _, err := grn.Parse(d.EntityGRN); err != nil {
		return err
	}
	if _, err := grn.Parse(d.DependencyGRN); err != nil {
		return err
	}
	if d.EntityGRN == d.DependencyGRN {
		return errors.New("entity_dependency: an entity cannot depend on itself")
	}
	return nil
}
