package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/metrics"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"go.uber.org/zap"
)

const (
	SweepDueSoon = "due_soon"
	SweepOverdue = "overdue"
)

// Notifier is the part of the notification service the sweeps use.
type Notifier interface {
	FindDuplicate(ctx context.Context, relatedID uint64, kind models.RelatedKind, notificationType models.NotificationType, userID uint64) (*models.Notification, error)
	Create(ctx context.Context, input services.NotificationInput) (*models.Notification, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Sweep    string `json:"sweep"`
	Scanned  int    `json:"scanned"`
	Notified int    `json:"notified"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Sweeper scans tasks for time-based notifications. Both sweeps are
// stateless; dedup against existing notifications makes reruns safe.
type Sweeper struct {
	taskRepo repository.TaskRepository
	notifier Notifier
	clock    services.Clock
	horizon  time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a new Sweeper. horizon is how far ahead the due-soon
// sweep looks.
func NewSweeper(taskRepo repository.TaskRepository, notifier Notifier, clock services.Clock, horizon time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		taskRepo: taskRepo,
		notifier: notifier,
		clock:    clock,
		horizon:  horizon,
		logger:   logger,
	}
}

// RunDueSoonSweep notifies assignees of incomplete tasks due within the
// horizon, at most once per task and assignee per dedup window.
func (s *Sweeper) RunDueSoonSweep(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()

	tasks, err := s.taskRepo.ListDueBetween(ctx, now, now.Add(s.horizon))
	if err != nil {
		return SweepResult{Sweep: SweepDueSoon}, fmt.Errorf("failed to list tasks due soon: %w", err)
	}

	return s.sweep(ctx, SweepDueSoon, tasks, func(t *models.Task) string {
		return fmt.Sprintf("Task %q is due %s", t.Title, t.DueDate.Format(time.RFC1123))
	}), nil
}

// RunOverdueSweep notifies assignees of incomplete tasks past their due date.
// It dedups on task_due as well, so a due-soon reminder inside the window
// suppresses the overdue one.
func (s *Sweeper) RunOverdueSweep(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()

	tasks, err := s.taskRepo.ListDueBefore(ctx, now)
	if err != nil {
		return SweepResult{Sweep: SweepOverdue}, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	return s.sweep(ctx, SweepOverdue, tasks, func(t *models.Task) string {
		return fmt.Sprintf("Task %q is overdue (was due %s)", t.Title, t.DueDate.Format(time.RFC1123))
	}), nil
}

// sweep notifies each candidate task. The reported duration is wall time,
// independent of the business clock.
func (s *Sweeper) sweep(ctx context.Context, name string, tasks []models.Task, message func(*models.Task) string) SweepResult {
	started := time.Now()
	result := SweepResult{Sweep: name, Scanned: len(tasks)}

	for i := range tasks {
		task := &tasks[i]
		if task.AssigneeID == nil || task.DueDate == nil {
			continue
		}

		outcome, err := s.notifyTask(ctx, task, message(task))
		if err != nil {
			result.Failed++
			metrics.RecordSweepOutcome(name, "failed")
			s.logger.Error("Sweep failed for task",
				zap.String("sweep", name),
				zap.Uint64("task_id", task.ID),
				zap.Error(err),
			)
			continue
		}

		metrics.RecordSweepOutcome(name, outcome)
		if outcome == "notified" {
			result.Notified++
		} else {
			result.Skipped++
		}
	}

	metrics.RecordSweepDuration(name, time.Since(started))
	s.logger.Info("Sweep completed",
		zap.String("sweep", name),
		zap.Int("scanned", result.Scanned),
		zap.Int("notified", result.Notified),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (s *Sweeper) notifyTask(ctx context.Context, task *models.Task, message string) (string, error) {
	userID := *task.AssigneeID

	existing, err := s.notifier.FindDuplicate(ctx, task.ID, models.RelatedTask, models.NotificationTaskDue, userID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "duplicate", nil
	}

	if _, err := s.notifier.Create(ctx, services.NotificationInput{
		UserID:      userID,
		Type:        models.NotificationTaskDue,
		Message:     message,
		RelatedID:   task.ID,
		RelatedKind: models.RelatedTask,
	}); err != nil {
		return "", err
	}
	return "notified", nil
}
