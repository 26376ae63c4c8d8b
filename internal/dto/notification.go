package dto

import (
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID          uint64                  `json:"id"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
	RelatedID   uint64                  `json:"related_id"`
	RelatedKind models.RelatedKind      `json:"related_kind"`
	Read        bool                    `json:"read"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NotificationListResponse represents a page of notifications
type NotificationListResponse struct {
	Notifications []NotificationDTO        `json:"notifications"`
	Unread        int64                    `json:"unread"`
	Pagination    utils.PaginationResponse `json:"pagination"`
}

// ToNotificationDTO converts a notification model to DTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          n.ID,
		Type:        n.Type,
		Message:     n.Message,
		RelatedID:   n.RelatedID,
		RelatedKind: n.RelatedKind,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

// ToNotificationDTOs converts notification models to DTOs
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		out[i] = ToNotificationDTO(n)
	}
	return out
}
