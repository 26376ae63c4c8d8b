package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned      NotificationType = "task_assigned"
	NotificationTaskDue           NotificationType = "task_due"
	NotificationTaskStatusUpdate  NotificationType = "task_status_update"
	NotificationNewComment        NotificationType = "new_comment"
	NotificationNewDocument       NotificationType = "new_document"
	NotificationAddedToProject    NotificationType = "added_to_project"
	NotificationApprovalRequest   NotificationType = "approval_request"
	NotificationMention           NotificationType = "mention"
	NotificationMilestoneCreated  NotificationType = "milestone_created"
	NotificationAddedToDepartment NotificationType = "added_to_department"
)

// RelatedKind names the entity a notification points at.
type RelatedKind string

const (
	RelatedTask     RelatedKind = "task"
	RelatedProject  RelatedKind = "project"
	RelatedComment  RelatedKind = "comment"
	RelatedDocument RelatedKind = "document"
	RelatedUser     RelatedKind = "user"
)

type Notification struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	UserID      uint64           `gorm:"not null;index:idx_notifications_dedup,priority:1" json:"user_id"`
	Type        NotificationType `gorm:"type:varchar(40);not null;index:idx_notifications_dedup,priority:2" json:"type"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	RelatedID   uint64           `gorm:"index:idx_notifications_dedup,priority:3" json:"related_id"`
	RelatedKind RelatedKind      `gorm:"type:varchar(20)" json:"related_kind"`
	Read        bool             `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_dedup,priority:4" json:"created_at"`
}
