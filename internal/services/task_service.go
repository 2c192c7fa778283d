package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/retention"
)

// Persister loads and stores the full task collection under a key.
type Persister interface {
	Load(key string) []models.Task
	Save(key string, tasks []models.Task) error
}

// Options configures a TaskService. Zero values fall back to defaults.
type Options struct {
	StorageKey      string
	RetentionWindow time.Duration
	Clock           func() time.Time
	Logger          *slog.Logger
}

// CreateTaskInput represents input for creating a task.
// The caller validates it; the service only fills in defaults.
type CreateTaskInput struct {
	Text      string
	Priority  models.Priority
	StartTime time.Time
	EndTime   time.Time
}

// UpdateTaskInput lists the fields an edit may change. Nil fields are left as is.
type UpdateTaskInput struct {
	Text      *string
	Priority  *models.Priority
	StartTime *time.Time
	EndTime   *time.Time
}

// ApplyTo returns task with the provided fields merged in.
func (in UpdateTaskInput) ApplyTo(task models.Task) models.Task {
	if in.Text != nil {
		task.Text = *in.Text
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.StartTime != nil {
		task.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		task.EndTime = *in.EndTime
	}
	return task
}

// Summary counts tasks by lifecycle state and outcome.
type Summary struct {
	Active        int `json:"active"`
	Completed     int `json:"completed"`
	OnTime        int `json:"onTime"`
	Late          int `json:"late"`
	AutoCompleted int `json:"autoCompleted"`
}

// TaskService owns the task collection. All operations are serialized on a
// single mutex and every read returns copies.
type TaskService struct {
	mu     sync.Mutex
	tasks  []models.Task
	lastID int64
	store  Persister
	key    string
	window time.Duration
	clock  func() time.Time
	logger *slog.Logger
}

// NewTaskService loads the stored collection, drops expired tasks and writes
// the filtered result back.
func NewTaskService(store Persister, opts Options) *TaskService {
	if opts.StorageKey == "" {
		opts.StorageKey = constants.DefaultStorageKey
	}
	if opts.RetentionWindow <= 0 {
		opts.RetentionWindow = retention.DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &TaskService{
		store:  store,
		key:    opts.StorageKey,
		window: opts.RetentionWindow,
		clock:  opts.Clock,
		logger: opts.Logger,
	}

	loaded := store.Load(s.key)
	s.tasks = retention.FilterOldTasks(loaded, s.clock(), s.window)
	for _, task := range s.tasks {
		if task.ID > s.lastID {
			s.lastID = task.ID
		}
	}
	s.logger.Info("task collection loaded",
		"key", s.key,
		"loaded", len(loaded),
		"expired", len(loaded)-len(s.tasks),
	)
	s.persist()

	return s
}

// Now returns the service clock's current time.
func (s *TaskService) Now() time.Time {
	return s.clock()
}

// Create appends a new active task.
func (s *TaskService) Create(input CreateTaskInput) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	task := models.Task{
		ID:        s.nextID(now),
		Text:      input.Text,
		Status:    models.TaskStatusActive,
		Priority:  priority,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		CreatedAt: now,
	}
	s.tasks = append(s.tasks, task)
	s.persist()

	return task.Clone()
}

// ToggleComplete marks an active task as completed by the user. Completed
// tasks are returned unchanged. The bool reports whether the task exists.
func (s *TaskService) ToggleComplete(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}

	task := &s.tasks[i]
	if task.IsActive() {
		now := s.clock()
		onTime := !now.After(task.EndTime)
		task.Status = models.TaskStatusCompleted
		task.Completed = true
		task.CompletedAt = &now
		task.IsOnTime = &onTime
		task.WasAutoCompleted = false
		s.persist()
	}

	return task.Clone(), true
}

// Delete removes the task. Unknown ids are ignored.
func (s *TaskService) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persist()
	return true
}

// DeleteAllCompleted removes every completed task and returns how many were removed.
func (s *TaskService) DeleteAllCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if !task.IsCompleted() {
			kept = append(kept, task)
		}
	}
	removed := len(s.tasks) - len(kept)
	if removed > 0 {
		s.tasks = kept
		s.persist()
	}
	return removed
}

// Edit merges the provided fields into the task. Lifecycle fields are never
// touched, even when the new end time is already in the past.
func (s *TaskService) Edit(id int64, input UpdateTaskInput) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}

	s.tasks[i] = input.ApplyTo(s.tasks[i])
	s.persist()
	return s.tasks[i].Clone(), true
}

// SweepAutoComplete closes every active task whose end time is before now.
// Returns the number of tasks changed.
func (s *TaskService) SweepAutoComplete(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.tasks {
		task := &s.tasks[i]
		if !task.IsActive() || task.Completed || !task.EndTime.Before(now) {
			continue
		}
		completedAt := now
		onTime := false
		task.Status = models.TaskStatusCompleted
		task.Completed = false
		task.CompletedAt = &completedAt
		task.IsOnTime = &onTime
		task.WasAutoCompleted = true
		changed++
	}
	if changed > 0 {
		s.persist()
	}
	return changed
}

// SweepRetention drops tasks older than the retention window.
// Returns the number of tasks removed.
func (s *TaskService) SweepRetention(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := retention.FilterOldTasks(s.tasks, now, s.window)
	removed := len(s.tasks) - len(kept)
	if removed > 0 {
		s.tasks = kept
		s.persist()
	}
	return removed
}

// Get returns a copy of the task with the given id.
func (s *TaskService) Get(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Tasks returns the whole collection in insertion order.
func (s *TaskService) Tasks() []models.Task {
	return s.filter(func(models.Task) bool { return true })
}

// ActiveTasks returns the active view.
func (s *TaskService) ActiveTasks() []models.Task {
	return s.filter(models.Task.IsActive)
}

// CompletedTasks returns the completed view.
func (s *TaskService) CompletedTasks() []models.Task {
	return s.filter(models.Task.IsCompleted)
}

// Summary counts the collection by view and completion outcome.
func (s *TaskService) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary Summary
	for _, task := range s.tasks {
		if task.IsActive() {
			summary.Active++
			continue
		}
		summary.Completed++
		switch task.Outcome() {
		case models.OutcomeOnTime:
			summary.OnTime++
		case models.OutcomeLate:
			summary.Late++
		case models.OutcomeIncomplete:
			summary.AutoCompleted++
		}
	}
	return summary
}

func (s *TaskService) filter(keep func(models.Task) bool) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if keep(task) {
			out = append(out, task.Clone())
		}
	}
	return out
}

func (s *TaskService) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from now, bumped past the last issued id.
func (s *TaskService) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist must be called with mu held. Failures are logged and swallowed:
// the in-memory collection stays authoritative.
func (s *TaskService) persist() {
	tasks := make([]models.Task, len(s.tasks))
	for i, task := range s.tasks {
		tasks[i] = task.Clone()
	}
	if err := s.store.Save(s.key, tasks); err != nil {
		s.logger.Warn("failed to persist tasks", "key", s.key, "count", len(tasks), "error", err)
	}
}
