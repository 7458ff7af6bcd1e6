package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// Grant gives a grantee one capability on a target entity. A grantee holds at most one
// grant per target.
type Grant struct {
	BaseModel

	Grantee    string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_grant_target_grantee,priority:2;index" json:"grantee"`
	Capability string     `gorm:"type:varchar(32);not null" json:"capability"`
	Target     string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_grant_target_grantee,priority:1" json:"target"`
	CreatedBy  string     `gorm:"type:varchar(36);not null" json:"created_by"`
	UpdatedBy  string     `gorm:"type:varchar(36);not null" json:"updated_by"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
}

// GRN returns the resource name of the grant itself.
func (g *Grant) GRN() string {
	return grn.New(grn.TypeGrant, g.ID).String()
}

// Expired reports whether the grant has an expiry at or before now.
func (g *Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// BeforeSave validates the grantee and target references.
func (g *Grant) BeforeSave(tx *gorm.DB) error {
	if _, err := grn.Parse(g.Grantee); err != nil {
		return fmt.Errorf("grant: grantee: %w", err)
	}
	if _, err := grn.Parse(g.Target); err != nil {
		return fmt.Errorf("grant: target: %w", err)
	}

	g.Capability = strings.TrimSpace(g.Capability)
	if g.Capability == "" {
		return errors.New("grant: capability is required")
	}

	g.CreatedBy = strings.TrimSpace(g.CreatedBy)
	if g.CreatedBy == "" {
		return errors.New("grant: created_by is required")
	}
	if strings.TrimSpace(g.UpdatedBy) == "" {
		g.UpdatedBy = g.CreatedBy
	}
	return nil
}
