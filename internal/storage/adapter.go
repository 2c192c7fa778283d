package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskflow/internal/models"
)

// Adapter encodes task collections into a Slot.
type Adapter struct {
	slot   Slot
	logger *slog.Logger
}

func NewAdapter(slot Slot, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{slot: slot, logger: logger}
}

// Load returns the collection stored under key. It never fails: a missing or
// unreadable slot yields an empty collection, and records that are invalid or
// repeat an earlier id are dropped.
func (a *Adapter) Load(key string) []models.Task {
	data, err := a.slot.Read(key)
	if errors.Is(err, ErrSlotEmpty) {
		a.logger.Debug("storage slot empty", "key", key)
		return []models.Task{}
	}
	if err != nil {
		a.logger.Warn("failed to read storage slot", "key", key, "error", err)
		return []models.Task{}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		a.logger.Warn("discarding malformed snapshot", "key", key, "error", err)
		return []models.Task{}
	}

	tasks := make([]models.Task, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for i, raw := range records {
		var task models.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			a.logger.Warn("dropping undecodable task record", "key", key, "index", i, "error", err)
			continue
		}
		if task.Priority == "" {
			task.Priority = models.PriorityNormal
		}
		if err := task.Validate(); err != nil {
			a.logger.Warn("dropping invalid task record", "key", key, "id", task.ID, "error", err)
			continue
		}
		if _, dup := seen[task.ID]; dup {
			a.logger.Warn("dropping duplicate task record", "key", key, "id", task.ID)
			continue
		}
		seen[task.ID] = struct{}{}
		tasks = append(tasks, task)
	}
	return tasks
}

// Save overwrites the slot with the full collection.
func (a *Adapter) Save(key string, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := a.slot.Write(key, data); err != nil {
		return err
	}
	return nil
}
