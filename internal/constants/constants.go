package constants

import "time"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Storage
const (
	DefaultStorageKey = "taskflow-all-tasks"
	DefaultDataDir    = "data"
	DefaultSQLitePath = "taskflow.db"
)

// Scheduling
const (
	DefaultAutoCompleteInterval   = 30 * time.Second
	DefaultRetentionSweepInterval = 10 * time.Minute
	DefaultShutdownTimeout        = 10 * time.Second
)

// AI drafts
const (
	MaxAIGeneratedTasks  = 10
	DefaultDraftDuration = time.Hour
	MaxDraftInputLength  = 4000
)

// Context keys
const (
	ContextKeyTaskID = "taskID"
)

// Session keys
const (
	SessionName     = "taskflow_session"
	SessionKeyTheme = "theme"
)
