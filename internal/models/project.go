package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "open"
	ProjectStatusClosed ProjectStatus = "closed"
)

type Project struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Status      ProjectStatus  `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Progress    int            `gorm:"not null;default:0" json:"progress"`
	Departments []string       `gorm:"type:text;serializer:json" json:"departments"`
	CreatorID   uint64         `gorm:"not null;index" json:"creator_id"`
	ManagerID   *uint64        `json:"manager_id"`
	CompletedAt *time.Time     `json:"completed_at"`
	CompletedBy *uint64        `json:"completed_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator        User            `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Milestones     []Milestone     `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
	Members        []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	PendingMembers []PendingMember `gorm:"foreignKey:ProjectID" json:"pending_members,omitempty"`
	Documents      []Document      `gorm:"foreignKey:ProjectID" json:"documents,omitempty"`
}

// IsEligible reports whether a user from department may request membership.
func (p *Project) IsEligible(department string) bool {
	for _, d := range p.Departments {
		if d == department {
			return true
		}
	}
	return false
}

// Milestone returns the milestone with the given id, or nil.
func (p *Project) Milestone(id uint64) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}
