package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid reports whether the status is a known lifecycle state.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusActive || s == TaskStatusCompleted
}

type Priority string

const (
	PriorityVeryImportant Priority = "very-important"
	PriorityImportant     Priority = "important"
	PriorityNormal        Priority = "normal"
	PriorityLessImportant Priority = "less-important"
)

// ValidPriorities returns all priorities in display order.
func ValidPriorities() []Priority {
	return []Priority{PriorityVeryImportant, PriorityImportant, PriorityNormal, PriorityLessImportant}
}

// IsValid reports whether the priority is one of the known values.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// Label returns the human-readable name. Unknown values display as Normal.
func (p Priority) Label() string {
	switch p {
	case PriorityVeryImportant:
		return "Very Important"
	case PriorityImportant:
		return "Important"
	case PriorityLessImportant:
		return "Less Important"
	default:
		return "Normal"
	}
}

// Outcome classifies how a task left (or has not yet left) the active list.
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeOnTime     Outcome = "on-time"
	OutcomeLate       Outcome = "late"
	OutcomeIncomplete Outcome = "incomplete"
)

// UrgentThreshold is the remaining time below which an active task is urgent.
const UrgentThreshold = 30 * time.Minute

var (
	ErrTaskTextEmpty       = errors.New("task text cannot be empty")
	ErrTaskInvalidStatus   = errors.New("task status is invalid")
	ErrTaskActiveCompleted = errors.New("active task must not carry completion data")
	ErrTaskMissingOutcome  = errors.New("completed task must carry completedAt and isOnTime")
)

// Task is a single scheduled item. The JSON layout is the persisted snapshot
// format, so field names must stay stable.
type Task struct {
	ID               int64      `json:"id"`
	Text             string     `json:"text"`
	Completed        bool       `json:"completed"`
	Status           TaskStatus `json:"status"`
	Priority         Priority   `json:"priority"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          time.Time  `json:"endTime"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt"`
	IsOnTime         *bool      `json:"isOnTime,omitempty"`
	WasAutoCompleted bool       `json:"wasAutoCompleted"`
}

// Layouts accepted when reading timestamps. Zone-less values, such as the ones
// a datetime-local input produces, are read in local time.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// UnmarshalJSON decodes a task, accepting RFC 3339 timestamps as well as the
// zone-less minute and second forms.
func (t *Task) UnmarshalJSON(data []byte) error {
	type taskAlias Task
	aux := struct {
		*taskAlias
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		CreatedAt   *string `json:"createdAt"`
		CompletedAt *string `json:"completedAt"`
	}{taskAlias: (*taskAlias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if t.StartTime, err = parseTimestamp("startTime", aux.StartTime); err != nil {
		return err
	}
	if t.EndTime, err = parseTimestamp("endTime", aux.EndTime); err != nil {
		return err
	}
	if t.CreatedAt, err = parseTimestamp("createdAt", aux.CreatedAt); err != nil {
		return err
	}
	t.CompletedAt = nil
	if aux.CompletedAt != nil && *aux.CompletedAt != "" {
		completedAt, err := parseTimestamp("completedAt", aux.CompletedAt)
		if err != nil {
			return err
		}
		t.CompletedAt = &completedAt
	}
	return nil
}

// parseTimeValue reads s as RFC 3339 or as a zone-less local time.
func parseTimeValue(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseTimestamp(field string, raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, nil
	}
	ts, err := parseTimeValue(*raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return ts, nil
}

// Deadline describes the time left on an active task.
type Deadline struct {
	Remaining time.Duration
	Overdue   bool
	Urgent    bool
}

func (t Task) IsActive() bool {
	return t.Status == TaskStatusActive
}

func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// AnchorTime is the instant retention age is measured from.
func (t Task) AnchorTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.CreatedAt
}

// Outcome derives the completion classification shown to users.
func (t Task) Outcome() Outcome {
	if !t.IsCompleted() {
		return OutcomePending
	}
	if t.WasAutoCompleted {
		return OutcomeIncomplete
	}
	if t.IsOnTime != nil && *t.IsOnTime {
		return OutcomeOnTime
	}
	return OutcomeLate
}

// DeadlineAt reports the remaining window at now.
func (t Task) DeadlineAt(now time.Time) Deadline {
	remaining := t.EndTime.Sub(now)
	if remaining <= 0 {
		return Deadline{Remaining: 0, Overdue: true}
	}
	return Deadline{Remaining: remaining, Urgent: remaining < UrgentThreshold}
}

// Validate checks the lifecycle invariants of a task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return ErrTaskTextEmpty
	}
	switch t.Status {
	case TaskStatusActive:
		if t.CompletedAt != nil || t.IsOnTime != nil {
			return ErrTaskActiveCompleted
		}
	case TaskStatusCompleted:
		if t.CompletedAt == nil || t.IsOnTime == nil {
			return ErrTaskMissingOutcome
		}
	default:
		return ErrTaskInvalidStatus
	}
	return nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		c.CompletedAt = &completedAt
	}
	if t.IsOnTime != nil {
		onTime := *t.IsOnTime
		c.IsOnTime = &onTime
	}
	return c
}
