// Package retention decides which tasks are still young enough to keep.
//
// A task's age is measured from its completion time when it has one and from
// its creation time otherwise, so abandoned active tasks and old history both
// age out of the collection.
package retention

import (
	"time"

	"github.com/yukikurage/taskflow/internal/models"
)

// DefaultWindow is the maximum age a task may reach before it is pruned.
const DefaultWindow = 72 * time.Hour

// Expired reports whether task has aged out of window at now.
func Expired(task models.Task, now time.Time, window time.Duration) bool {
	return now.Sub(task.AnchorTime()) >= window
}

// FilterOldTasks returns the tasks still within window at now, in their
// original order. The input slice is not modified.
func FilterOldTasks(tasks []models.Task, now time.Time, window time.Duration) []models.Task {
	kept := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if Expired(task, now, window) {
			continue
		}
		kept = append(kept, task)
	}
	return kept
}
