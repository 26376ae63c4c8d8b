package database

import (
	"fmt"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed")
	return nil
}
