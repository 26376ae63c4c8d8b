package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"gorm.io/gorm"
)

// UserService manages user attributes that other users act on.
type UserService struct {
	userRepo repository.UserRepository
	notifier *NotificationService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, notifier *NotificationService) *UserService {
	return &UserService{
		userRepo: userRepo,
		notifier: notifier,
	}
}

// AssignDepartment moves a user into a department and notifies them. Only
// administrators may assign departments, their own included, since project
// registration is gated on the department.
func (s *UserService) AssignDepartment(ctx context.Context, actorID, userID uint64, department string) (*models.User, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, ErrDepartmentRequired
	}

	actor, err := findUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, ErrNotAdministrator
	}

	if err := s.userRepo.UpdateDepartment(ctx, userID, department); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:      userID,
		Type:        models.NotificationAddedToDepartment,
		Message:     fmt.Sprintf("You have been added to the %s department", department),
		RelatedID:   userID,
		RelatedKind: models.RelatedUser,
	})

	return findUser(ctx, s.userRepo, userID)
}

// GrantAdmin makes the named user an administrator.
func (s *UserService) GrantAdmin(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.IsAdmin {
		return user, nil
	}

	if err := s.userRepo.SetAdmin(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("failed to grant admin: %w", err)
	}
	user.IsAdmin = true
	return user, nil
}
