package models

import "time"

// Snapshot is one named storage slot holding a serialized task collection.
// Data is sized so MySQL stores it as LONGTEXT.
type Snapshot struct {
	Key       string    `gorm:"column:slot_key;primarykey;type:varchar(191)" json:"key"`
	Data      string    `gorm:"size:4294967295;not null" json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}
