package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/utils"
)

var (
	errTextRequired    = errors.New("text is required")
	errInvalidPriority = errors.New("priority must be one of very-important, important, normal, less-important")
	errTimesRequired   = errors.New("startTime and endTime are required")
	errEndBeforeStart  = errors.New("endTime must not be before startTime")
	errTextTooLong     = errors.New("text is too long")
)

// fieldError ties a validation failure to the request field that caused it.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string {
	return e.Err.Error()
}

func (e *fieldError) Unwrap() error {
	return e.Err
}

func badField(c *gin.Context, ferr *fieldError) {
	apierrors.BadRequestWithDetails(c, ferr.Error(), gin.H{"field": ferr.Field})
}

type TaskHandler struct {
	service   *services.TaskService
	aiService *services.AIService
	logger    *slog.Logger
}

func NewTaskHandler(service *services.TaskService, aiService *services.AIService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		service:   service,
		aiService: aiService,
		logger:    logger,
	}
}

// ListTasks returns both views and the summary counts
func (h *TaskHandler) ListTasks(c *gin.Context) {
	now := h.service.Now()
	c.JSON(http.StatusOK, dto.TaskBoardResponse{
		Active:    dto.ToTaskDTOs(h.service.ActiveTasks(), now),
		Completed: dto.ToTaskDTOs(h.service.CompletedTasks(), now),
		Summary:   h.service.Summary(),
	})
}

// ListActiveTasks returns a page of the active view
func (h *TaskHandler) ListActiveTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	c.JSON(http.StatusOK, dto.ToTaskListResponse(h.service.ActiveTasks(), params, h.service.Now()))
}

// ListCompletedTasks returns a page of the completed view
func (h *TaskHandler) ListCompletedTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	c.JSON(http.StatusOK, dto.ToTaskListResponse(h.service.CompletedTasks(), params, h.service.Now()))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	task, ok := h.service.Get(id)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.service.Now()))
}

// CreateTask creates a new active task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Text:      strings.TrimSpace(req.Text),
		Priority:  req.Priority,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
	}
	if ferr := validateTaskFields(input.Text, input.Priority, input.StartTime, input.EndTime); ferr != nil {
		badField(c, ferr)
		return
	}

	task := h.service.Create(input)
	c.JSON(http.StatusCreated, dto.ToTaskDTO(task, h.service.Now()))
}

// ToggleTask completes an active task. Completed tasks are returned unchanged.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	task, ok := h.service.ToggleComplete(id)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.service.Now()))
}

// UpdateTask edits text, priority or the scheduled window
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Priority:  req.Priority,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		input.Text = &text
	}
	if req.Priority != nil && *req.Priority == "" {
		normal := models.PriorityNormal
		input.Priority = &normal
	}

	current, ok := h.service.Get(id)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}
	merged := input.ApplyTo(current)
	if ferr := validateTaskFields(merged.Text, merged.Priority, merged.StartTime, merged.EndTime); ferr != nil {
		badField(c, ferr)
		return
	}

	task, ok := h.service.Edit(id, input)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.service.Now()))
}

// DeleteTask removes a task. Deleting an unknown id succeeds.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	deleted := h.service.Delete(id)

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"deleted": deleted,
	})
}

// DeleteCompletedTasks clears the completed view
func (h *TaskHandler) DeleteCompletedTasks(c *gin.Context) {
	c.JSON(http.StatusOK, dto.DeleteCompletedResponse{Deleted: h.service.DeleteAllCompleted()})
}

// GenerateDrafts asks the AI service for task suggestions. Nothing is created.
func (h *TaskHandler) GenerateDrafts(c *gin.Context) {
	var req dto.GenerateDraftsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		badField(c, &fieldError{Field: "text", Err: errTextRequired})
		return
	}
	if utf8.RuneCountInString(text) > constants.MaxDraftInputLength {
		badField(c, &fieldError{Field: "text", Err: errTextTooLong})
		return
	}

	drafts, err := h.aiService.DraftTasks(c.Request.Context(), text)
	switch {
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI drafting is not configured")
		return
	case errors.Is(err, services.ErrAINoDrafts):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity,
			apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "No tasks could be extracted from the text"))
		return
	case err != nil:
		h.logger.Error("AI draft generation failed", "error", err)
		apierrors.BadGateway(c, "Failed to generate task drafts")
		return
	}

	c.JSON(http.StatusOK, dto.DraftListResponse{Drafts: drafts})
}

// validateTaskFields enforces the rules the engine relies on callers to check.
func validateTaskFields(text string, priority models.Priority, start, end time.Time) *fieldError {
	switch {
	case strings.TrimSpace(text) == "":
		return &fieldError{Field: "text", Err: errTextRequired}
	case priority != "" && !priority.IsValid():
		return &fieldError{Field: "priority", Err: errInvalidPriority}
	case start.IsZero():
		return &fieldError{Field: "startTime", Err: errTimesRequired}
	case end.IsZero():
		return &fieldError{Field: "endTime", Err: errTimesRequired}
	case end.Before(start):
		return &fieldError{Field: "endTime", Err: errEndBeforeStart}
	}
	return nil
}
