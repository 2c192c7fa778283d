package repository

import (
	"github.com/yukikurage/taskflow/internal/models"
)

// SnapshotRepository defines the interface for snapshot slot data access
type SnapshotRepository interface {
	// FindByKey finds the snapshot stored under key
	FindByKey(key string) (*models.Snapshot, error)

	// Save inserts the snapshot or overwrites the existing one with the same key
	Save(snapshot *models.Snapshot) error
}
