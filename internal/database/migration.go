package database

import (
	"fmt"

	"contas/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for the document store.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Document{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
