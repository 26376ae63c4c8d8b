package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/yukikurage/project-lifecycle-api/internal/constants"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/mail"
	"github.com/yukikurage/project-lifecycle-api/internal/metrics"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService is the only writer of notification records. Every
// notification is persisted first and then mailed on a best-effort basis.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	mailer   mail.Mailer
	pool     *ants.Pool
	clock    Clock
	window   time.Duration
	logger   *zap.Logger
}

// NotificationOption configures a NotificationService.
type NotificationOption func(*NotificationService)

// WithDeliveryPool makes mail delivery asynchronous on the given pool.
func WithDeliveryPool(pool *ants.Pool) NotificationOption {
	return func(s *NotificationService) {
		s.pool = pool
	}
}

// WithDedupWindow overrides the trailing window used by FindDuplicate.
func WithDedupWindow(window time.Duration) NotificationOption {
	return func(s *NotificationService) {
		if window > 0 {
			s.window = window
		}
	}
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	clock Clock,
	logger *zap.Logger,
	opts ...NotificationOption,
) *NotificationService {
	s := &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		mailer:   mailer,
		clock:    clock,
		window:   constants.DefaultDedupWindow,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotificationInput describes a notification to create.
type NotificationInput struct {
	UserID      uint64
	Type        models.NotificationType
	Message     string
	RelatedID   uint64
	RelatedKind models.RelatedKind
}

// Create persists a notification and hands it to the mailer. Delivery
// failures are logged and never returned.
func (s *NotificationService) Create(ctx context.Context, input NotificationInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID:      input.UserID,
		Type:        input.Type,
		Message:     input.Message,
		RelatedID:   input.RelatedID,
		RelatedKind: input.RelatedKind,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.RecordNotificationCreated(string(n.Type))

	s.dispatch(ctx, *n)
	return n, nil
}

// Notify is Create for call sites that only log failures. Lifecycle
// operations use it after their own state change has been committed.
func (s *NotificationService) Notify(ctx context.Context, input NotificationInput) {
	if _, err := s.Create(ctx, input); err != nil {
		s.logger.Error("Failed to create notification",
			zap.Uint64("user_id", input.UserID),
			zap.String("type", string(input.Type)),
			zap.Error(err),
		)
	}
}

// FindDuplicate returns a notification of the same type for the same user and
// related entity created within the dedup window, or nil when there is none.
func (s *NotificationService) FindDuplicate(ctx context.Context, relatedID uint64, kind models.RelatedKind, notificationType models.NotificationType, userID uint64) (*models.Notification, error) {
	since := s.clock.Now().Add(-s.window)

	n, err := s.repo.FindDuplicate(ctx, repository.DuplicateQuery{
		UserID:      userID,
		Type:        notificationType,
		RelatedID:   relatedID,
		RelatedKind: kind,
	}, since)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up duplicate notification: %w", err)
	}
	return n, nil
}

// List returns a page of a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error) {
	notifications, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount counts a user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint64) (*models.Notification, error) {
	n, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.Read = true
	return n, nil
}

// MarkAllRead marks every unread notification of a user as read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, userID uint64) error {
	if _, err := s.findOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// DeleteAll removes every notification of a user and returns how many were removed.
func (s *NotificationService) DeleteAll(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.repo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) findOwned(ctx context.Context, id, userID uint64) (*models.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if n.UserID != userID {
		return nil, ErrNotNotificationOwner
	}
	return n, nil
}

// Drain stops accepting asynchronous deliveries and waits up to timeout for
// the queued ones to finish.
func (s *NotificationService) Drain(timeout time.Duration) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.ReleaseTimeout(timeout)
}

// dispatch delivers inline, or on the pool when one is configured. A full
// or closed pool falls back to inline delivery.
func (s *NotificationService) dispatch(ctx context.Context, n models.Notification) {
	if s.pool == nil {
		s.deliver(ctx, n)
		return
	}

	detached := context.WithoutCancel(ctx)
	if err := s.pool.Submit(func() { s.deliver(detached, n) }); err != nil {
		s.logger.Warn("Delivery pool rejected task, delivering inline",
			zap.Uint64("notification_id", n.ID),
			zap.Error(err),
		)
		s.deliver(ctx, n)
	}
}

func (s *NotificationService) deliver(ctx context.Context, n models.Notification) {
	err := s.send(ctx, n)
	switch {
	case err == nil:
		metrics.RecordDelivery("sent")
	case errors.Is(err, errNoRecipient):
		metrics.RecordDelivery("skipped")
		s.logger.Debug("Notification not mailed, user has no email",
			zap.Uint64("notification_id", n.ID),
			zap.Uint64("user_id", n.UserID),
		)
	default:
		metrics.RecordDelivery("failed")
		s.logger.Warn("Notification delivery failed",
			zap.Uint64("notification_id", n.ID),
			zap.Uint64("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

var errNoRecipient = errors.New("recipient has no email address")

func (s *NotificationService) send(ctx context.Context, n models.Notification) error {
	user, err := s.userRepo.FindByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("%w: load recipient: %v", apierrors.ErrDeliveryFailure, err)
	}
	if user.Email == "" {
		return errNoRecipient
	}

	body, err := mail.RenderNotification(mail.NotificationBody{
		Username: user.Username,
		Message:  n.Message,
	})
	if err != nil {
		return fmt.Errorf("%w: render: %v", apierrors.ErrDeliveryFailure, err)
	}

	if err := s.mailer.Send(ctx, user.Email, subjectFor(n.Type), body); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrDeliveryFailure, err)
	}
	return nil
}

func subjectFor(t models.NotificationType) string {
	switch t {
	case models.NotificationTaskAssigned:
		return "You have been assigned a task"
	case models.NotificationTaskDue:
		return "Task due date reminder"
	case models.NotificationTaskStatusUpdate:
		return "Task status updated"
	case models.NotificationNewComment:
		return "New comment on your task"
	case models.NotificationNewDocument:
		return "New project document"
	case models.NotificationAddedToProject:
		return "You have been added to a project"
	case models.NotificationApprovalRequest:
		return "Project membership request"
	case models.NotificationMention:
		return "You were mentioned"
	case models.NotificationMilestoneCreated:
		return "New project milestone"
	case models.NotificationAddedToDepartment:
		return "Department assignment"
	default:
		return "Notification"
	}
}
