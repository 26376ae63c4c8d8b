package dto

import (
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	IsAdmin    bool   `json:"is_admin,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	StartDate   *time.Time          `json:"start_date"`
	DueDate     *time.Time          `json:"due_date"`
	Progress    int                 `json:"progress"`
	ProjectID   uint64              `json:"project_id"`
	MilestoneID *uint64             `json:"milestone_id"`
	AssigneeID  *uint64             `json:"assignee_id"`
	CreatorID   uint64              `json:"creator_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Assignee    *UserDTO            `json:"assignee,omitempty"`
	Comments    []CommentDTO        `json:"comments,omitempty"`
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	Text      string    `json:"text"`
	Author    UserDTO   `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Department: user.Department,
		IsAdmin:    user.IsAdmin,
	}
}

// ToTaskDTO converts a task model to DTO
func ToTaskDTO(task models.Task) TaskDTO {
	out := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		Progress:    task.Progress,
		ProjectID:   task.ProjectID,
		MilestoneID: task.MilestoneID,
		AssigneeID:  task.AssigneeID,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		out.Assignee = &assignee
	}
	if len(task.Comments) > 0 {
		out.Comments = make([]CommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			out.Comments[i] = ToCommentDTO(comment)
		}
	}

	return out
}

// ToCommentDTO converts a comment model to DTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Text:      comment.Text,
		Author:    ToUserDTO(comment.Author),
		CreatedAt: comment.CreatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to the list response
func ToTaskListResponse(tasks []models.Task, page, pageSize int, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
