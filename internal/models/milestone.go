package models

import "time"

type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "pending"
	MilestoneStatusCompleted MilestoneStatus = "completed"
)

// Milestone belongs to exactly one project and is only ever addressed through
// it. IDs are stable: deleting a milestone never renumbers the others.
type Milestone struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	ProjectID   uint64          `gorm:"not null;index" json:"project_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	DueDate     *time.Time      `json:"due_date"`
	Status      MilestoneStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CompletedAt *time.Time      `json:"completed_at"`
	CompletedBy *uint64         `json:"completed_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsCompleted reports whether the milestone is completed.
func (m *Milestone) IsCompleted() bool {
	return m.Status == MilestoneStatusCompleted
}
