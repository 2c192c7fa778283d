package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the snapshots table.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(&models.Snapshot{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}
