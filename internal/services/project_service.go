package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService is the lifecycle entry point for projects, their
// memberships and their milestones.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	engine      *ConsistencyEngine
	notifier    *NotificationService
	locks       *ProjectLocks
	clock       Clock
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	engine *ConsistencyEngine,
	notifier *NotificationService,
	locks *ProjectLocks,
	clock Clock,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		engine:      engine,
		notifier:    notifier,
		locks:       locks,
		clock:       clock,
		logger:      logger,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	CreatorID   uint64
	Name        string
	Description string
	Departments []string
	ManagerID   *uint64
}

// CreateMilestoneInput represents parameters to create a milestone.
type CreateMilestoneInput struct {
	ProjectID   uint64
	ActorID     uint64
	Name        string
	Description string
	DueDate     *time.Time
}

// CreateProject creates an open project. The creator joins as a manager, and
// a distinct manager, when given, joins as a manager too.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := findUser(ctx, s.userRepo, input.CreatorID); err != nil {
		return nil, err
	}

	managerID := input.CreatorID
	if input.ManagerID != nil {
		managerID = *input.ManagerID
		if _, err := findUser(ctx, s.userRepo, managerID); err != nil {
			return nil, err
		}
	}

	departments := make([]string, 0, len(input.Departments))
	for _, d := range input.Departments {
		if d = strings.TrimSpace(d); d != "" {
			departments = append(departments, d)
		}
	}

	now := s.clock.Now()
	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Status:      models.ProjectStatusOpen,
		Departments: departments,
		CreatorID:   input.CreatorID,
		ManagerID:   &managerID,
	}
	creator := &models.ProjectMember{
		UserID:   input.CreatorID,
		Role:     models.RoleManager,
		JoinedAt: now,
	}

	if err := s.projectRepo.Create(ctx, project, creator); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if managerID != input.CreatorID {
		if err := s.projectRepo.AddMember(ctx, &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    managerID,
			Role:      models.RoleManager,
			JoinedAt:  now,
		}); err != nil {
			return nil, fmt.Errorf("failed to add project manager: %w", err)
		}
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      managerID,
			Type:        models.NotificationAddedToProject,
			Message:     fmt.Sprintf("You have been added to project %q as manager", project.Name),
			RelatedID:   project.ID,
			RelatedKind: models.RelatedProject,
		})
	}

	s.logger.Info("Project created", zap.Uint64("project_id", project.ID), zap.Uint64("creator_id", input.CreatorID))
	return findProject(ctx, s.projectRepo, project.ID, "Members", "Members.User")
}

// GetProject returns a project with milestones, members and pending requests.
func (s *ProjectService) GetProject(ctx context.Context, projectID uint64) (*models.Project, error) {
	return findProject(ctx, s.projectRepo, projectID,
		"Creator", "Milestones", "Members", "Members.User", "PendingMembers", "PendingMembers.User", "Documents")
}

// ListProjects returns the projects a user is a member of.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project together with its tasks, milestones,
// memberships and documents. Only the creator may delete it.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, actorID uint64) error {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return err
	}
	if project.CreatorID != actorID {
		return ErrNotProjectCreator
	}

	if err := s.taskRepo.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("Project deleted", zap.Uint64("project_id", projectID), zap.Uint64("actor_id", actorID))
	return nil
}

// RegisterForProject records a membership request from an eligible user and
// asks the creator for approval.
func (s *ProjectService) RegisterForProject(ctx context.Context, projectID, userID uint64) (*models.PendingMember, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrProjectNotOpen
	}

	user, err := findUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if !project.IsEligible(user.Department) {
		return nil, ErrDepartmentNotEligible
	}

	if _, err := s.projectRepo.FindMember(ctx, projectID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if _, err := s.projectRepo.FindPending(ctx, projectID, userID); err == nil {
		return nil, ErrAlreadyPending
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}

	pending := &models.PendingMember{
		ProjectID:   projectID,
		UserID:      userID,
		RequestedAt: s.clock.Now(),
	}
	if err := s.projectRepo.AddPending(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to register for project: %w", err)
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:      project.CreatorID,
		Type:        models.NotificationApprovalRequest,
		Message:     fmt.Sprintf("%s requested to join project %q", user.Username, project.Name),
		RelatedID:   user.ID,
		RelatedKind: models.RelatedUser,
	})

	pending.User = *user
	return pending, nil
}

// ApproveMember moves a pending user into the member list.
func (s *ProjectService) ApproveMember(ctx context.Context, projectID, actorID, userID uint64) (*models.ProjectMember, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := s.pendingDecision(ctx, projectID, actorID, userID)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.RoleMember,
		JoinedAt:  s.clock.Now(),
	}
	if err := s.projectRepo.ApprovePending(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to approve member: %w", err)
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:      userID,
		Type:        models.NotificationAddedToProject,
		Message:     fmt.Sprintf("You have been added to project %q", project.Name),
		RelatedID:   project.ID,
		RelatedKind: models.RelatedProject,
	})
	return member, nil
}

// RejectMember drops a pending membership request.
func (s *ProjectService) RejectMember(ctx context.Context, projectID, actorID, userID uint64) error {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	if _, err := s.pendingDecision(ctx, projectID, actorID, userID); err != nil {
		return err
	}
	if err := s.projectRepo.RemovePending(ctx, projectID, userID); err != nil {
		return fmt.Errorf("failed to reject member: %w", err)
	}
	return nil
}

func (s *ProjectService) pendingDecision(ctx context.Context, projectID, actorID, userID uint64) (*models.Project, error) {
	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, ErrNotProjectCreator
	}
	if _, err := s.projectRepo.FindPending(ctx, projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("failed to find pending request: %w", err)
	}
	return project, nil
}

// CreateMilestone adds a pending milestone and tells every member about it.
// A closed project is reopened since it now has an incomplete milestone.
func (s *ProjectService) CreateMilestone(ctx context.Context, input CreateMilestoneInput) (*models.Milestone, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	unlock := s.locks.Lock(input.ProjectID)
	defer unlock()

	project, err := findProject(ctx, s.projectRepo, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := ensureProjectManager(ctx, s.projectRepo, project.ID, input.ActorID); err != nil {
		return nil, err
	}

	milestone := &models.Milestone{
		ProjectID:   project.ID,
		Name:        name,
		Description: input.Description,
		DueDate:     utcPtr(input.DueDate),
		Status:      models.MilestoneStatusPending,
	}
	if err := s.projectRepo.CreateMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	if err := s.engine.reopenIfClosed(ctx, project.ID); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(ctx, project.ID)
	if err != nil {
		s.logger.Error("Failed to list members for milestone notification",
			zap.Uint64("project_id", project.ID),
			zap.Error(err),
		)
		return milestone, nil
	}
	for _, m := range members {
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      m.UserID,
			Type:        models.NotificationMilestoneCreated,
			Message:     fmt.Sprintf("Milestone %q was added to project %q", milestone.Name, project.Name),
			RelatedID:   project.ID,
			RelatedKind: models.RelatedProject,
		})
	}

	return milestone, nil
}

// milestonePatchFields are the keys UpdateMilestone accepts. Other keys are
// ignored, except the completion fields which are rejected.
var milestonePatchFields = map[string]bool{
	"name":        true,
	"description": true,
	"due_date":    true,
}

var milestoneProtectedFields = map[string]bool{
	"status":       true,
	"completed_at": true,
	"completed_by": true,
}

// UpdateMilestone applies a field patch to a milestone.
func (s *ProjectService) UpdateMilestone(ctx context.Context, projectID, milestoneID, actorID uint64, patch map[string]interface{}) (*models.Milestone, error) {
	for key := range patch {
		if milestoneProtectedFields[key] {
			return nil, ErrProtectedMilestoneField
		}
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	if _, err := findProject(ctx, s.projectRepo, projectID); err != nil {
		return nil, err
	}
	if err := ensureProjectManager(ctx, s.projectRepo, projectID, actorID); err != nil {
		return nil, err
	}
	milestone, err := s.engine.findMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return nil, err
	}

	for key, value := range patch {
		if !milestonePatchFields[key] {
			continue
		}
		if err := applyMilestoneField(milestone, key, value); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.UpdateMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	return milestone, nil
}

func applyMilestoneField(m *models.Milestone, key string, value interface{}) error {
	switch key {
	case "name":
		name, ok := value.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return ErrNameRequired
		}
		m.Name = strings.TrimSpace(name)
	case "description":
		if value == nil {
			m.Description = ""
			return nil
		}
		description, ok := value.(string)
		if !ok {
			return ErrInvalidMilestoneField
		}
		m.Description = description
	case "due_date":
		due, err := toTimePtr(value)
		if err != nil {
			return ErrInvalidMilestoneField
		}
		m.DueDate = due
	}
	return nil
}

func toTimePtr(value interface{}) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return utcPtr(&v), nil
	case *time.Time:
		return utcPtr(v), nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		return utcPtr(&t), nil
	default:
		return nil, fmt.Errorf("unsupported time value %T", value)
	}
}

// DeleteMilestone deletes a milestone no task references.
func (s *ProjectService) DeleteMilestone(ctx context.Context, projectID, milestoneID, actorID uint64) error {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	if _, err := findProject(ctx, s.projectRepo, projectID); err != nil {
		return err
	}
	if err := ensureProjectManager(ctx, s.projectRepo, projectID, actorID); err != nil {
		return err
	}
	if _, err := s.engine.findMilestone(ctx, projectID, milestoneID); err != nil {
		return err
	}

	referenced, err := s.taskRepo.CountByMilestone(ctx, projectID, milestoneID)
	if err != nil {
		return fmt.Errorf("failed to count milestone tasks: %w", err)
	}
	if referenced > 0 {
		return ErrMilestoneReferenced
	}

	if err := s.projectRepo.DeleteMilestone(ctx, projectID, milestoneID); err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return nil
}

// CompleteMilestone completes a milestone through the consistency engine.
func (s *ProjectService) CompleteMilestone(ctx context.Context, projectID, milestoneID, actorID uint64) (*models.Milestone, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if err := ensureProjectManager(ctx, s.projectRepo, projectID, actorID); err != nil {
		return nil, err
	}

	return s.engine.AttemptCompleteMilestone(ctx, project, milestoneID, actorID)
}

// CompleteProject closes a project through the consistency engine.
func (s *ProjectService) CompleteProject(ctx context.Context, projectID, actorID uint64) (*models.Project, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if err := ensureProjectManager(ctx, s.projectRepo, projectID, actorID); err != nil {
		return nil, err
	}

	return s.engine.AttemptCompleteProject(ctx, project, actorID)
}

// RecheckMilestone reverts a milestone that is marked completed while one of
// its tasks is not.
func (s *ProjectService) RecheckMilestone(ctx context.Context, projectID, milestoneID uint64) (bool, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.engine.RecheckMilestoneConsistency(ctx, projectID, milestoneID)
}

// AddDocument records document metadata and tells every other member.
func (s *ProjectService) AddDocument(ctx context.Context, projectID, uploaderID uint64, name, url string) (*models.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	project, err := findProject(ctx, s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := ensureProjectMember(ctx, s.projectRepo, projectID, uploaderID); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ProjectID:  projectID,
		UploaderID: uploaderID,
		Name:       name,
		URL:        url,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.projectRepo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	members, err := s.projectRepo.ListMembers(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to list members for document notification",
			zap.Uint64("project_id", projectID),
			zap.Error(err),
		)
		return doc, nil
	}
	for _, m := range members {
		if m.UserID == uploaderID {
			continue
		}
		s.notifier.Notify(ctx, NotificationInput{
			UserID:      m.UserID,
			Type:        models.NotificationNewDocument,
			Message:     fmt.Sprintf("Document %q was added to project %q", doc.Name, project.Name),
			RelatedID:   doc.ID,
			RelatedKind: models.RelatedDocument,
		})
	}

	return doc, nil
}
