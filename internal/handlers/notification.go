package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/middleware"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	ctx := c.Request.Context()

	notifications, total, err := h.notificationService.List(ctx, userID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	unread, err := h.notificationService.UnreadCount(ctx, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NotificationListResponse{
		Notifications: dto.ToNotificationDTOs(notifications),
		Unread:        unread,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationDTO(*n))
}

// MarkAllRead marks every notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// DeleteNotification deletes one notification
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

// DeleteAllNotifications deletes every notification of the caller
func (h *NotificationHandler) DeleteAllNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
