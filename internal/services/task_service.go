package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/constants"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService is the lifecycle entry point for task mutations. Every
// mutation runs under the lock of the project it touches.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	engine      *ConsistencyEngine
	notifier    *NotificationService
	locks       *ProjectLocks
	clock       Clock
	aiService   *AIService
	logger      *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	engine *ConsistencyEngine,
	notifier *NotificationService,
	locks *ProjectLocks,
	clock Clock,
	aiService *AIService,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		engine:      engine,
		notifier:    notifier,
		locks:       locks,
		clock:       clock,
		aiService:   aiService,
		logger:      logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	ActorID     uint64
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	StartDate   *time.Time
	DueDate     *time.Time
	Progress    int
	AssigneeID  *uint64
	MilestoneID *uint64
}

// UpdateTaskInput lists the mutable task fields. Nil means unchanged.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	StartDate      *time.Time
	ClearStartDate bool
	DueDate        *time.Time
	ClearDueDate   bool
	Progress       *int
	AssigneeID     *uint64
	ClearAssignee  bool
	MilestoneID    *uint64
	ClearMilestone bool
	ProjectID      *uint64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ActorID     uint64
	ProjectID   *uint64
	MilestoneID *uint64
	Status      *models.TaskStatus
	Page        int
	PageSize    int
}

// CreateTask creates a task in a project. The assignee defaults to the actor
// and is notified with task_assigned.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}
	if input.Progress < 0 || input.Progress > 100 {
		return nil, ErrInvalidProgress
	}

	unlock := s.locks.Lock(input.ProjectID)
	defer unlock()

	if _, err := findProject(ctx, s.projectRepo, input.ProjectID); err != nil {
		return nil, err
	}
	if _, err := ensureProjectMember(ctx, s.projectRepo, input.ProjectID, input.ActorID); err != nil {
		return nil, err
	}

	assigneeID := input.ActorID
	if input.AssigneeID != nil {
		assigneeID = *input.AssigneeID
	}
	if _, err := findUser(ctx, s.userRepo, assigneeID); err != nil {
		return nil, err
	}
	if input.MilestoneID != nil {
		if err := s.ensureMilestone(ctx, input.ProjectID, *input.MilestoneID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		StartDate:   utcPtr(input.StartDate),
		DueDate:     utcPtr(input.DueDate),
		Progress:    input.Progress,
		ProjectID:   input.ProjectID,
		AssigneeID:  &assigneeID,
		MilestoneID: input.MilestoneID,
		CreatorID:   input.ActorID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.engine.OnTaskMutated(ctx, task, TaskChange{Created: true}); err != nil {
		return nil, err
	}
	if _, err := s.engine.RecomputeProjectProgress(ctx, task.ProjectID); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:      assigneeID,
		Type:        models.NotificationTaskAssigned,
		Message:     fmt.Sprintf("You have been assigned to task %q", task.Title),
		RelatedID:   task.ID,
		RelatedKind: models.RelatedTask,
	})

	return s.getTask(ctx, task.ID, "Assignee")
}

// UpdateTask applies a patch to a task. Moving a task to another project
// locks both projects and drops a milestone that does not belong to the
// destination.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	var destination []uint64
	if input.ProjectID != nil {
		destination = append(destination, *input.ProjectID)
	}
	task, unlock, err := s.lockTask(ctx, taskID, destination...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := ensureProjectMember(ctx, s.projectRepo, task.ProjectID, actorID); err != nil {
		return nil, err
	}

	previousStatus := task.Status
	previousAssignee := task.AssigneeID
	previousMilestone := task.MilestoneID
	previousProject := task.ProjectID

	if err := s.applyPatch(ctx, task, actorID, input); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	change := TaskChange{
		StatusChanged:    task.Status != previousStatus,
		MilestoneChanged: !sameID(task.MilestoneID, previousMilestone) || task.ProjectID != previousProject,
	}
	if err := s.engine.OnTaskMutated(ctx, task, change); err != nil {
		return nil, err
	}
	if _, err := s.engine.RecomputeProjectProgress(ctx, task.ProjectID); err != nil {
		return nil, err
	}
	if task.ProjectID != previousProject {
		if _, err := s.engine.RecomputeProjectProgress(ctx, previousProject); err != nil {
			return nil, err
		}
	}

	if change.StatusChanged && task.AssigneeID != nil {
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      *task.AssigneeID,
			Type:        models.NotificationTaskStatusUpdate,
			Message:     fmt.Sprintf("Task %q changed from %s to %s", task.Title, previousStatus, task.Status),
			RelatedID:   task.ID,
			RelatedKind: models.RelatedTask,
		})
	}
	if task.AssigneeID != nil && !sameID(task.AssigneeID, previousAssignee) {
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      *task.AssigneeID,
			Type:        models.NotificationTaskAssigned,
			Message:     fmt.Sprintf("You have been assigned to task %q", task.Title),
			RelatedID:   task.ID,
			RelatedKind: models.RelatedTask,
		})
	}

	return s.getTask(ctx, task.ID, "Assignee")
}

func (s *TaskService) applyPatch(ctx context.Context, task *models.Task, actorID uint64, input UpdateTaskInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearStartDate {
		task.StartDate = nil
	} else if input.StartDate != nil {
		task.StartDate = utcPtr(input.StartDate)
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = utcPtr(input.DueDate)
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return ErrInvalidProgress
		}
		task.Progress = *input.Progress
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if _, err := findUser(ctx, s.userRepo, *input.AssigneeID); err != nil {
			return err
		}
		task.AssigneeID = input.AssigneeID
	}

	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		if _, err := findProject(ctx, s.projectRepo, *input.ProjectID); err != nil {
			return err
		}
		if _, err := ensureProjectMember(ctx, s.projectRepo, *input.ProjectID, actorID); err != nil {
			return err
		}
		task.ProjectID = *input.ProjectID
		if input.MilestoneID == nil {
			task.MilestoneID = nil
		}
	}

	if input.ClearMilestone {
		task.MilestoneID = nil
	} else if input.MilestoneID != nil {
		if err := s.ensureMilestone(ctx, task.ProjectID, *input.MilestoneID); err != nil {
			return err
		}
		task.MilestoneID = input.MilestoneID
	}

	return nil
}

// DeleteTask deletes a task and recomputes its project's progress
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	task, unlock, err := s.lockTask(ctx, taskID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := ensureProjectMember(ctx, s.projectRepo, task.ProjectID, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if _, err := s.engine.RecomputeProjectProgress(ctx, task.ProjectID); err != nil {
		return err
	}
	return nil
}

// GetTask returns a task with its assignee and comments
func (s *TaskService) GetTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.getTask(ctx, taskID, "Assignee", "Comments", "Comments.Author")
	if err != nil {
		return nil, err
	}
	if _, err := ensureProjectMember(ctx, s.projectRepo, task.ProjectID, actorID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks lists the tasks of a project, or the actor's own tasks across
// projects when no project is given.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID:   input.ProjectID,
		MilestoneID: input.MilestoneID,
		Status:      input.Status,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}

	if input.ProjectID != nil {
		if _, err := ensureProjectMember(ctx, s.projectRepo, *input.ProjectID, input.ActorID); err != nil {
			return nil, 0, err
		}
	} else {
		filter.AssigneeID = &input.ActorID
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.\-]+)`)

// AddComment appends a comment to a task. The assignee gets new_comment
// unless they wrote it, and every mentioned user other than the author gets
// mention.
func (s *TaskService) AddComment(ctx context.Context, taskID, authorID uint64, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentEmpty
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := ensureProjectMember(ctx, s.projectRepo, task.ProjectID, authorID); err != nil {
		return nil, err
	}
	author, err := findUser(ctx, s.userRepo, authorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:    task.ID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.clock.Now(),
	}
	if err := s.taskRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Author = *author

	if task.AssigneeID != nil && *task.AssigneeID != authorID {
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      *task.AssigneeID,
			Type:        models.NotificationNewComment,
			Message:     fmt.Sprintf("%s commented on task %q", author.Username, task.Title),
			RelatedID:   task.ID,
			RelatedKind: models.RelatedTask,
		})
	}

	mentioned, err := s.userRepo.FindByUsernames(ctx, mentionedUsernames(text))
	if err != nil {
		s.logger.Error("Failed to resolve mentions", zap.Uint64("comment_id", comment.ID), zap.Error(err))
		return comment, nil
	}
	for _, user := range mentioned {
		if user.ID == authorID {
			continue
		}
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      user.ID,
			Type:        models.NotificationMention,
			Message:     fmt.Sprintf("%s mentioned you on task %q", author.Username, task.Title),
			RelatedID:   comment.ID,
			RelatedKind: models.RelatedComment,
		})
	}

	return comment, nil
}

// GenerateTaskDrafts uses AI to draft tasks for a project from free text
func (s *TaskService) GenerateTaskDrafts(ctx context.Context, projectID, actorID uint64, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := ensureProjectMember(ctx, s.projectRepo, projectID, actorID); err != nil {
		return nil, err
	}

	drafts, err := s.aiService.DraftProjectTasks(ctx, project.Name, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	return filterDrafts(drafts, s.clock.Now())
}

func filterDrafts(drafts []GeneratedTask, now time.Time) ([]GeneratedTask, error) {
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]GeneratedTask, 0, len(drafts))
	cutoff := now.Add(-24 * time.Hour)
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		if draft.DueDate != nil && draft.DueDate.Before(cutoff) {
			draft.DueDate = nil
		}
		if !models.TaskPriority(draft.Priority).Valid() {
			draft.Priority = string(models.TaskPriorityMedium)
		}
		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}
	return valid, nil
}

// lockTask locks the task's project along with any extra projects and
// returns the task as read under those locks. A task that moved to another
// project before the locks were taken is read and locked again.
func (s *TaskService) lockTask(ctx context.Context, taskID uint64, extra ...uint64) (*models.Task, func(), error) {
	for {
		current, err := s.getTask(ctx, taskID)
		if err != nil {
			return nil, nil, err
		}

		unlock := s.locks.Lock(append([]uint64{current.ProjectID}, extra...)...)
		task, err := s.getTask(ctx, taskID)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if task.ProjectID == current.ProjectID {
			return task, unlock, nil
		}
		unlock()
	}
}

func (s *TaskService) getTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureMilestone(ctx context.Context, projectID, milestoneID uint64) error {
	if _, err := s.projectRepo.FindMilestone(ctx, projectID, milestoneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMilestoneNotFound
		}
		return fmt.Errorf("failed to find milestone: %w", err)
	}
	return nil
}

// mentionedUsernames returns the distinct @usernames in text, in order of
// first appearance.
func mentionedUsernames(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(m[1], ".-")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func sameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
