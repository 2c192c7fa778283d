package repository

import (
	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSnapshotRepository is a GORM implementation of SnapshotRepository
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// FindByKey finds the snapshot stored under key.
// Returns gorm.ErrRecordNotFound when the slot has never been written.
func (r *GormSnapshotRepository) FindByKey(key string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := r.db.Where("slot_key = ?", key).First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Save upserts the snapshot, fully replacing any previous data for the key
func (r *GormSnapshotRepository) Save(snapshot *models.Snapshot) error {
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(snapshot).Error
}
