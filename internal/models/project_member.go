package models

import "time"

type ProjectRole string

const (
	RoleManager ProjectRole = "manager"
	RoleMember  ProjectRole = "member"
)

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// PendingMember is a membership request awaiting the creator's decision.
type PendingMember struct {
	ProjectID   uint64    `gorm:"primarykey" json:"project_id"`
	UserID      uint64    `gorm:"primarykey" json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
