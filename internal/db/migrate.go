package db

import (
	"fmt"

	"github.com/threatscope/threatscope/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.QuotaRecord{},
		&models.Lookup{},
	)
}
