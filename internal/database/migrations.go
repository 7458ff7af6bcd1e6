package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Entity{},
		&models.EntityDependency{},
		&models.Grant{},
		&models.ShareAudit{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
