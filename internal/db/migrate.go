package db

import (
	"fmt"

	"github.com/zulandar/parley/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&models.Conversation{},
		&models.ConversationMessage{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
