package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/primecode/internal/dto"
	apierrors "github.com/yukikurage/primecode/internal/errors"
	"github.com/yukikurage/primecode/internal/logger"
	"github.com/yukikurage/primecode/internal/middleware"
	"github.com/yukikurage/primecode/internal/models"
	"github.com/yukikurage/primecode/internal/services"
	"github.com/yukikurage/primecode/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         logrus.FieldLogger
}

func NewTaskHandler(taskService *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// ListTasks returns the current user's tasks
// Supports search, status and optional page/limit
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		Search: c.Query("search"),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apierrors.ValidationFailed(c, map[string]string{"status": "must be one of: todo, in-progress, done"})
			return
		}
		input.Status = &status
	}

	params, paginate := utils.GetPaginationParams(c)
	if paginate {
		input.Page = params.Page
		input.PageSize = params.Limit
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), user.ID, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	var pagination *utils.PaginationResponse
	if paginate {
		pagination = &utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		}
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, pagination))
}

// GetTask returns one of the current user's tasks
func (h *TaskHandler) GetTask(c *gin.Context) {
	user, taskID, ok := h.taskScope(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), user.ID, taskID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,title"`
		Description string              `json:"description" binding:"description"`
		Status      models.TaskStatus   `json:"status" binding:"omitempty,oneof=todo in-progress done"`
		Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
		Tags        []string            `json:"tags" binding:"omitempty,dive,tag"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), user.ID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// UpdateTask applies a partial update
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, taskID, ok := h.taskScope(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,title"`
		Description *string              `json:"description" binding:"omitempty,description"`
		Status      *models.TaskStatus   `json:"status" binding:"omitempty,oneof=todo in-progress done"`
		Priority    *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
		Tags        *[]string            `json:"tags" binding:"omitempty,dive,tag"`
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
		input.SetTags = true
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), user.ID, taskID, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, taskID, ok := h.taskScope(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), user.ID, taskID); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task removed"})
}

// taskScope returns the current user and the validated :id.
func (h *TaskHandler) taskScope(c *gin.Context) (*models.User, string, bool) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, "", false
	}
	taskID, ok := middleware.GetTaskID(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return nil, "", false
	}
	return user, taskID, true
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrTitleEmpty):
		apierrors.ValidationFailed(c, map[string]string{"title": "is required"})
	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.ValidationFailed(c, map[string]string{"status": "must be one of: todo, in-progress, done"})
	case errors.Is(err, services.ErrInvalidPriority):
		apierrors.ValidationFailed(c, map[string]string{"priority": "must be one of: low, medium, high"})
	default:
		logger.LogError(h.log, "task request failed", err, logrus.Fields{"path": c.FullPath()})
		apierrors.InternalError(c)
	}
}
