package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/database"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create persists a notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uint64) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// FindDuplicate returns the newest notification matching q created at or after since.
// It returns gorm.ErrRecordNotFound when there is none.
func (r *GormNotificationRepository) FindDuplicate(ctx context.Context, q DuplicateQuery, since time.Time) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND related_id = ? AND related_kind = ?", q.UserID, q.Type, q.RelatedID, q.RelatedKind).
		Where("created_at >= ?", since).
		Scopes(database.NewestFirst).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser lists a user's notifications newest first
func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error) {
	var (
		notifications []models.Notification
		total         int64
	)

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Scopes(database.NewestFirst, database.Paginate(params)).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// CountUnread counts a user's unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips the read flag of one notification
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumn("is_read", true).Error
}

// MarkAllRead flips the read flag of every unread notification of a user
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return result.RowsAffected, result.Error
}

// Delete deletes one notification
func (r *GormNotificationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Notification{}, id).Error
}

// DeleteAllByUser deletes every notification of a user
func (r *GormNotificationRepository) DeleteAllByUser(ctx context.Context, userID uint64) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
