package dto

import (
	"fmt"
	"time"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/utils"
)

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Text      string          `json:"text" binding:"required"`
	Priority  models.Priority `json:"priority"`
	StartTime *time.Time      `json:"startTime" binding:"required"`
	EndTime   *time.Time      `json:"endTime" binding:"required"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/:id. Omitted fields are unchanged.
type UpdateTaskRequest struct {
	Text      *string          `json:"text"`
	Priority  *models.Priority `json:"priority"`
	StartTime *time.Time       `json:"startTime"`
	EndTime   *time.Time       `json:"endTime"`
}

type GenerateDraftsRequest struct {
	Text string `json:"text" binding:"required"`
}

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=dark light"`
}

// DeadlineDTO describes the time left on an active task
type DeadlineDTO struct {
	RemainingSeconds int64  `json:"remainingSeconds"`
	Text             string `json:"text"`
	Overdue          bool   `json:"overdue"`
	Urgent           bool   `json:"urgent"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID               int64             `json:"id"`
	Text             string            `json:"text"`
	Completed        bool              `json:"completed"`
	Status           models.TaskStatus `json:"status"`
	Priority         models.Priority   `json:"priority"`
	PriorityLabel    string            `json:"priorityLabel"`
	StartTime        time.Time         `json:"startTime"`
	EndTime          time.Time         `json:"endTime"`
	CreatedAt        time.Time         `json:"createdAt"`
	CompletedAt      *time.Time        `json:"completedAt"`
	IsOnTime         *bool             `json:"isOnTime,omitempty"`
	WasAutoCompleted bool              `json:"wasAutoCompleted"`
	Outcome          models.Outcome    `json:"outcome"`
	Deadline         *DeadlineDTO      `json:"deadline,omitempty"`
}

// TaskBoardResponse is the combined view returned by GET /api/tasks
type TaskBoardResponse struct {
	Active    []TaskDTO        `json:"active"`
	Completed []TaskDTO        `json:"completed"`
	Summary   services.Summary `json:"summary"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

type DraftListResponse struct {
	Drafts []services.TaskDraft `json:"drafts"`
}

type DeleteCompletedResponse struct {
	Deleted int `json:"deleted"`
}

// ToTaskDTO converts a Task model to TaskDTO, deriving display fields at now
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:               task.ID,
		Text:             task.Text,
		Completed:        task.Completed,
		Status:           task.Status,
		Priority:         task.Priority,
		PriorityLabel:    task.Priority.Label(),
		StartTime:        task.StartTime,
		EndTime:          task.EndTime,
		CreatedAt:        task.CreatedAt,
		CompletedAt:      task.CompletedAt,
		IsOnTime:         task.IsOnTime,
		WasAutoCompleted: task.WasAutoCompleted,
		Outcome:          task.Outcome(),
	}

	if task.IsActive() {
		deadline := task.DeadlineAt(now)
		dto.Deadline = &DeadlineDTO{
			RemainingSeconds: int64(deadline.Remaining / time.Second),
			Text:             FormatRemaining(deadline),
			Overdue:          deadline.Overdue,
			Urgent:           deadline.Urgent,
		}
	}

	return dto
}

func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}
	return items
}

// ToTaskListResponse pages tasks and converts the page
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, now time.Time) TaskListResponse {
	return TaskListResponse{
		Tasks: ToTaskDTOs(utils.Paginate(tasks, params), now),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int64(len(tasks)),
		},
	}
}

// FormatRemaining renders a deadline as "Overdue", "2h 5m remaining" or "12m remaining".
func FormatRemaining(d models.Deadline) string {
	if d.Overdue {
		return "Overdue"
	}
	hours := int(d.Remaining / time.Hour)
	minutes := int((d.Remaining % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}
