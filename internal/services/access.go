package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"gorm.io/gorm"
)

func findProject(ctx context.Context, repo repository.ProjectRepository, projectID uint64, preload ...string) (*models.Project, error) {
	project, err := repo.FindByID(ctx, projectID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func findUser(ctx context.Context, repo repository.UserRepository, userID uint64) (*models.User, error) {
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ensureProjectMember verifies that a user belongs to a project
func ensureProjectMember(ctx context.Context, repo repository.ProjectRepository, projectID, userID uint64) (*models.ProjectMember, error) {
	member, err := repo.FindMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectMember
		}
		return nil, fmt.Errorf("failed to verify project membership: %w", err)
	}
	return member, nil
}

// ensureProjectManager verifies that a user is a manager of a project
func ensureProjectManager(ctx context.Context, repo repository.ProjectRepository, projectID, userID uint64) error {
	member, err := ensureProjectMember(ctx, repo, projectID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.RoleManager {
		return ErrNotProjectManager
	}
	return nil
}
