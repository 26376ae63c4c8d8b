package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves every column of a task, leaving associations untouched
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task and its comments
	Delete(ctx context.Context, id uint64) error

	// DeleteByProject deletes every task of a project and their comments
	DeleteByProject(ctx context.Context, projectID uint64) error

	// CountByProject returns the total and completed task counts of a project
	CountByProject(ctx context.Context, projectID uint64) (total, completed int64, err error)

	// CountIncompleteByProject counts tasks of a project that are not completed
	CountIncompleteByProject(ctx context.Context, projectID uint64) (int64, error)

	// CountByMilestone counts tasks referencing a milestone
	CountByMilestone(ctx context.Context, projectID, milestoneID uint64) (int64, error)

	// CountIncompleteByMilestone counts tasks referencing a milestone that are not completed
	CountIncompleteByMilestone(ctx context.Context, projectID, milestoneID uint64) (int64, error)

	// ListDueBetween lists assigned, incomplete tasks with from <= due_date <= to
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)

	// ListDueBefore lists assigned, incomplete tasks with due_date < before
	ListDueBefore(ctx context.Context, before time.Time) ([]models.Task, error)

	// CreateComment appends a comment to a task
	CreateComment(ctx context.Context, comment *models.Comment) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID   *uint64
	AssigneeID  *uint64
	MilestoneID *uint64
	Status      *models.TaskStatus
	Page        int
	PageSize    int
}

// ProjectRepository defines the interface for project data access, including
// the milestones, memberships and documents the project owns.
type ProjectRepository interface {
	// Create creates a project and its initial member
	Create(ctx context.Context, project *models.Project, creator *models.ProjectMember) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	// ListByMember lists projects a user is a member of
	ListByMember(ctx context.Context, userID uint64) ([]models.Project, error)

	// Update saves every column of a project, leaving associations untouched
	Update(ctx context.Context, project *models.Project) error

	// UpdateProgress atomically sets the progress column
	UpdateProgress(ctx context.Context, id uint64, progress int) error

	// Delete deletes a project with its milestones, memberships and documents
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a member to a project
	AddMember(ctx context.Context, member *models.ProjectMember) error

	// FindMember finds a specific project member
	FindMember(ctx context.Context, projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error)

	// AddPending records a membership request
	AddPending(ctx context.Context, pending *models.PendingMember) error

	// FindPending finds a membership request
	FindPending(ctx context.Context, projectID, userID uint64) (*models.PendingMember, error)

	// RemovePending removes a membership request
	RemovePending(ctx context.Context, projectID, userID uint64) error

	// ApprovePending moves a request into the member list in one transaction
	ApprovePending(ctx context.Context, member *models.ProjectMember) error

	// CreateMilestone adds a milestone to a project
	CreateMilestone(ctx context.Context, milestone *models.Milestone) error

	// FindMilestone finds a milestone within a project
	FindMilestone(ctx context.Context, projectID, milestoneID uint64) (*models.Milestone, error)

	// ListMilestones lists the milestones of a project ordered by id
	ListMilestones(ctx context.Context, projectID uint64) ([]models.Milestone, error)

	// UpdateMilestone saves every column of a milestone
	UpdateMilestone(ctx context.Context, milestone *models.Milestone) error

	// DeleteMilestone deletes a milestone within a project
	DeleteMilestone(ctx context.Context, projectID, milestoneID uint64) error

	// CreateDocument records document metadata
	CreateDocument(ctx context.Context, doc *models.Document) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByUsernames finds every user whose username is in names
	FindByUsernames(ctx context.Context, names []string) ([]models.User, error)

	// UpdateDepartment sets a user's department
	UpdateDepartment(ctx context.Context, id uint64, department string) error

	// SetAdmin grants or revokes administrator rights
	SetAdmin(ctx context.Context, id uint64, admin bool) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create persists a notification
	Create(ctx context.Context, n *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uint64) (*models.Notification, error)

	// FindDuplicate returns the newest notification matching the query created at or after since
	FindDuplicate(ctx context.Context, q DuplicateQuery, since time.Time) (*models.Notification, error)

	// ListByUser lists a user's notifications newest first
	ListByUser(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID uint64) (int64, error)

	// MarkRead flips the read flag of one notification
	MarkRead(ctx context.Context, id uint64) error

	// MarkAllRead flips the read flag of every unread notification of a user
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)

	// Delete deletes one notification
	Delete(ctx context.Context, id uint64) error

	// DeleteAllByUser deletes every notification of a user
	DeleteAllByUser(ctx context.Context, userID uint64) (int64, error)
}

// DuplicateQuery identifies notifications that count as repeats of each other
type DuplicateQuery struct {
	UserID      uint64
	Type        models.NotificationType
	RelatedID   uint64
	RelatedKind models.RelatedKind
}
