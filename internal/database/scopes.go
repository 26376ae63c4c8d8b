package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders notifications by creation time, newest first, with id
// breaking ties between rows written in the same instant.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC, id DESC")
}

// IncompleteTasks keeps tasks whose status is not completed
func IncompleteTasks(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", models.TaskStatusCompleted)
}

// SweepCandidates keeps incomplete tasks that have an assignee to notify,
// earliest due date first.
func SweepCandidates(db *gorm.DB) *gorm.DB {
	return db.Scopes(IncompleteTasks).
		Where("assignee_id IS NOT NULL").
		Order("due_date ASC")
}
