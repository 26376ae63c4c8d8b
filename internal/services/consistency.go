package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskChange describes what a task mutation touched.
type TaskChange struct {
	Created          bool
	StatusChanged    bool
	MilestoneChanged bool
}

// ConsistencyEngine keeps task, milestone and project completion state in
// agreement. Callers hold the project's lock from ProjectLocks.
type ConsistencyEngine struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	clock       Clock
	logger      *zap.Logger
}

// NewConsistencyEngine creates a new ConsistencyEngine
func NewConsistencyEngine(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, clock Clock, logger *zap.Logger) *ConsistencyEngine {
	return &ConsistencyEngine{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		clock:       clock,
		logger:      logger,
	}
}

// AttemptCompleteMilestone marks a milestone completed when every task that
// references it is completed. Completing an already completed milestone
// returns it unchanged, but the task check runs first either way.
func (e *ConsistencyEngine) AttemptCompleteMilestone(ctx context.Context, project *models.Project, milestoneID, actorID uint64) (*models.Milestone, error) {
	milestone, err := e.findMilestone(ctx, project.ID, milestoneID)
	if err != nil {
		return nil, err
	}

	incomplete, err := e.taskRepo.CountIncompleteByMilestone(ctx, project.ID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to count milestone tasks: %w", err)
	}
	if incomplete > 0 {
		return nil, ErrMilestoneHasIncompleteTasks
	}
	if milestone.IsCompleted() {
		return milestone, nil
	}

	now := e.clock.Now()
	milestone.Status = models.MilestoneStatusCompleted
	milestone.CompletedAt = &now
	milestone.CompletedBy = &actorID

	if err := e.projectRepo.UpdateMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to complete milestone: %w", err)
	}

	e.logger.Info("Milestone completed",
		zap.Uint64("project_id", project.ID),
		zap.Uint64("milestone_id", milestoneID),
		zap.Uint64("actor_id", actorID),
	)
	return milestone, nil
}

// AttemptCompleteProject closes a project when all of its tasks and
// milestones are completed. Closing a closed project returns it unchanged
// once the same checks pass.
func (e *ConsistencyEngine) AttemptCompleteProject(ctx context.Context, project *models.Project, actorID uint64) (*models.Project, error) {
	incomplete, err := e.taskRepo.CountIncompleteByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count project tasks: %w", err)
	}
	if incomplete > 0 {
		return nil, ErrProjectHasIncompleteTasks
	}

	milestones, err := e.projectRepo.ListMilestones(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	for i := range milestones {
		if !milestones[i].IsCompleted() {
			return nil, ErrProjectHasPendingMilestones
		}
	}
	if project.Status == models.ProjectStatusClosed {
		project.Milestones = milestones
		return project, nil
	}

	now := e.clock.Now()
	project.Status = models.ProjectStatusClosed
	project.CompletedAt = &now
	project.CompletedBy = &actorID
	project.Milestones = milestones

	if err := e.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to close project: %w", err)
	}

	e.logger.Info("Project closed", zap.Uint64("project_id", project.ID), zap.Uint64("actor_id", actorID))
	return project, nil
}

// RecheckMilestoneConsistency reverts a completed milestone to pending when
// one of its tasks is incomplete, reopening the project if it was closed.
// It reports whether the milestone changed.
func (e *ConsistencyEngine) RecheckMilestoneConsistency(ctx context.Context, projectID, milestoneID uint64) (bool, error) {
	milestone, err := e.findMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return false, err
	}
	if !milestone.IsCompleted() {
		return false, nil
	}

	incomplete, err := e.taskRepo.CountIncompleteByMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return false, fmt.Errorf("failed to count milestone tasks: %w", err)
	}
	if incomplete == 0 {
		return false, nil
	}

	if err := e.revertMilestone(ctx, milestone); err != nil {
		return false, err
	}
	if err := e.reopenIfClosed(ctx, projectID); err != nil {
		return true, err
	}
	return true, nil
}

// OnTaskMutated runs after a task is created or updated. A completed
// milestone referenced by the task goes back to pending when the task was
// just created, changed status, moved onto the milestone, or is itself
// incomplete. A closed project is reopened when the task is incomplete or
// one of its milestones was reverted.
func (e *ConsistencyEngine) OnTaskMutated(ctx context.Context, task *models.Task, change TaskChange) error {
	reverted := false

	if task.MilestoneID != nil {
		milestone, err := e.findMilestone(ctx, task.ProjectID, *task.MilestoneID)
		if err != nil {
			return err
		}

		touched := change.Created || change.StatusChanged || change.MilestoneChanged
		if milestone.IsCompleted() && (touched || !task.IsCompleted()) {
			if err := e.revertMilestone(ctx, milestone); err != nil {
				return err
			}
			reverted = true
		}
	}

	if reverted || !task.IsCompleted() {
		return e.reopenIfClosed(ctx, task.ProjectID)
	}
	return nil
}

// RecomputeProjectProgress stores round(100 * completed / total) as the
// project's progress, or 0 for a project without tasks.
func (e *ConsistencyEngine) RecomputeProjectProgress(ctx context.Context, projectID uint64) (int, error) {
	total, completed, err := e.taskRepo.CountByProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to count project tasks: %w", err)
	}

	progress := 0
	if total > 0 {
		progress = int(math.Round(100 * float64(completed) / float64(total)))
	}

	if err := e.projectRepo.UpdateProgress(ctx, projectID, progress); err != nil {
		return 0, fmt.Errorf("failed to update project progress: %w", err)
	}
	return progress, nil
}

func (e *ConsistencyEngine) revertMilestone(ctx context.Context, milestone *models.Milestone) error {
	milestone.Status = models.MilestoneStatusPending
	milestone.CompletedAt = nil
	milestone.CompletedBy = nil

	if err := e.projectRepo.UpdateMilestone(ctx, milestone); err != nil {
		return fmt.Errorf("failed to revert milestone: %w", err)
	}

	e.logger.Info("Milestone reverted to pending",
		zap.Uint64("project_id", milestone.ProjectID),
		zap.Uint64("milestone_id", milestone.ID),
	)
	return nil
}

func (e *ConsistencyEngine) reopenIfClosed(ctx context.Context, projectID uint64) error {
	project, err := e.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	if project.Status != models.ProjectStatusClosed {
		return nil
	}

	project.Status = models.ProjectStatusOpen
	project.CompletedAt = nil
	project.CompletedBy = nil

	if err := e.projectRepo.Update(ctx, project); err != nil {
		return fmt.Errorf("failed to reopen project: %w", err)
	}

	e.logger.Info("Project reopened", zap.Uint64("project_id", projectID))
	return nil
}

func (e *ConsistencyEngine) findMilestone(ctx context.Context, projectID, milestoneID uint64) (*models.Milestone, error) {
	milestone, err := e.projectRepo.FindMilestone(ctx, projectID, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to find milestone: %w", err)
	}
	return milestone, nil
}
