package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/database"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Comments" {
			query = query.Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("comments.id ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.MilestoneID != nil {
		query = query.Where("tasks.milestone_id = ?", *filter.MilestoneID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC, tasks.id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// Delete soft deletes a task and hard deletes its comments
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// DeleteByProject deletes every task of a project together with their comments
func (r *GormTaskRepository) DeleteByProject(ctx context.Context, projectID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Unscoped().Model(&models.Task{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error
	})
}

// CountByProject returns the total and completed task counts of a project
func (r *GormTaskRepository) CountByProject(ctx context.Context, projectID uint64) (int64, int64, error) {
	var total, completed int64

	if err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND status = ?", projectID, models.TaskStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}

	return total, completed, nil
}

// CountIncompleteByProject counts tasks of a project that are not completed
func (r *GormTaskRepository) CountIncompleteByProject(ctx context.Context, projectID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Scopes(database.IncompleteTasks).
		Count(&count).Error
	return count, err
}

// CountByMilestone counts tasks referencing a milestone
func (r *GormTaskRepository) CountByMilestone(ctx context.Context, projectID, milestoneID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND milestone_id = ?", projectID, milestoneID).
		Count(&count).Error
	return count, err
}

// CountIncompleteByMilestone counts tasks referencing a milestone that are not completed
func (r *GormTaskRepository) CountIncompleteByMilestone(ctx context.Context, projectID, milestoneID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND milestone_id = ?", projectID, milestoneID).
		Scopes(database.IncompleteTasks).
		Count(&count).Error
	return count, err
}

// ListDueBetween lists assigned, incomplete tasks with from <= due_date <= to
func (r *GormTaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("due_date >= ? AND due_date <= ?", from, to).
		Scopes(database.SweepCandidates).
		Find(&tasks).Error
	return tasks, err
}

// ListDueBefore lists assigned, incomplete tasks with due_date < before
func (r *GormTaskRepository) ListDueBefore(ctx context.Context, before time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("due_date < ?", before).
		Scopes(database.SweepCandidates).
		Find(&tasks).Error
	return tasks, err
}

// CreateComment appends a comment to a task
func (r *GormTaskRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}
