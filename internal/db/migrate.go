package db

import (
	"fmt"

	"github.com/pixelwork/pixelwork/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the schema for all persisted record types.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.AdminConfig{},
		&models.UserKey{},
		&models.UserUsage{},
		&models.ApiProvider{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}
