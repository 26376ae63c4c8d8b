package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/middleware"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks of a project, or the caller's own tasks when
// no project_id is given
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := optionalUintQuery(c, "project_id")
	if !ok {
		return
	}
	milestoneID, ok := optionalUintQuery(c, "milestone_id")
	if !ok {
		return
	}

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		if !s.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		status = &s
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		ActorID:     userID,
		ProjectID:   projectID,
		MilestoneID: milestoneID,
		Status:      status,
		Page:        params.Page,
		PageSize:    params.Limit,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task with its comments
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		StartDate   *time.Time          `json:"start_date"`
		DueDate     *time.Time          `json:"due_date"`
		Progress    int                 `json:"progress"`
		ProjectID   uint64              `json:"project_id" binding:"required"`
		AssigneeID  *uint64             `json:"assignee_id"`
		MilestoneID *uint64             `json:"milestone_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   req.ProjectID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Progress:    req.Progress,
		AssigneeID:  req.AssigneeID,
		MilestoneID: req.MilestoneID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. An explicit null clears the dates,
// the assignee and the milestone.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := decodeTaskPatch(raw)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AddComment adds a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GenerateTasks drafts tasks for a project from free text with AI. Drafts
// are returned for review and not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateTaskDrafts(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": drafts})
}

type patchError string

func (e patchError) Error() string { return string(e) }

func decodeTaskPatch(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	for key, value := range raw {
		isNull := string(value) == "null"
		var err error

		switch key {
		case "title":
			err = json.Unmarshal(value, &input.Title)
		case "description":
			err = json.Unmarshal(value, &input.Description)
		case "status":
			err = json.Unmarshal(value, &input.Status)
		case "priority":
			err = json.Unmarshal(value, &input.Priority)
		case "progress":
			err = json.Unmarshal(value, &input.Progress)
		case "start_date":
			input.ClearStartDate = isNull
			err = json.Unmarshal(value, &input.StartDate)
		case "due_date":
			input.ClearDueDate = isNull
			err = json.Unmarshal(value, &input.DueDate)
		case "assignee_id":
			input.ClearAssignee = isNull
			err = json.Unmarshal(value, &input.AssigneeID)
		case "milestone_id":
			input.ClearMilestone = isNull
			err = json.Unmarshal(value, &input.MilestoneID)
		case "project_id":
			err = json.Unmarshal(value, &input.ProjectID)
		}

		if err != nil {
			return input, patchError("Invalid value for " + key)
		}
	}

	return input, nil
}
