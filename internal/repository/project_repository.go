package repository

import (
	"context"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and its initial member in a transaction
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project, creator *models.ProjectMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}

		creator.ProjectID = project.ID
		return tx.Omit(clause.Associations).Create(creator).Error
	})
}

// FindByID finds a project by ID with optional preloading. Milestones are
// always ordered by id.
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Milestones" {
			query = query.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
				return db.Order("milestones.id ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByMember lists projects a user is a member of
func (r *GormProjectRepository) ListByMember(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project
	memberOf := r.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", memberOf).
		Order("id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// UpdateProgress atomically sets the progress column
func (r *GormProjectRepository) UpdateProgress(ctx context.Context, id uint64, progress int) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("progress", progress).Error
}

// Delete deletes a project and everything it owns in a transaction
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.PendingMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(ctx context.Context, projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// AddPending records a membership request
func (r *GormProjectRepository) AddPending(ctx context.Context, pending *models.PendingMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pending).Error
}

// FindPending finds a membership request
func (r *GormProjectRepository) FindPending(ctx context.Context, projectID, userID uint64) (*models.PendingMember, error) {
	var pending models.PendingMember
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// RemovePending removes a membership request
func (r *GormProjectRepository) RemovePending(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.PendingMember{}).Error
}

// ApprovePending removes the request and adds the member in one transaction
func (r *GormProjectRepository) ApprovePending(ctx context.Context, member *models.ProjectMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND user_id = ?", member.ProjectID, member.UserID).
			Delete(&models.PendingMember{}).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(member).Error
	})
}

// CreateMilestone adds a milestone to a project
func (r *GormProjectRepository) CreateMilestone(ctx context.Context, milestone *models.Milestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

// FindMilestone finds a milestone within a project
func (r *GormProjectRepository) FindMilestone(ctx context.Context, projectID, milestoneID uint64) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, milestoneID).
		First(&milestone).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

// ListMilestones lists the milestones of a project ordered by id
func (r *GormProjectRepository) ListMilestones(ctx context.Context, projectID uint64) ([]models.Milestone, error) {
	var milestones []models.Milestone
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// UpdateMilestone saves every column of a milestone
func (r *GormProjectRepository) UpdateMilestone(ctx context.Context, milestone *models.Milestone) error {
	return r.db.WithContext(ctx).Save(milestone).Error
}

// DeleteMilestone deletes a milestone within a project
func (r *GormProjectRepository) DeleteMilestone(ctx context.Context, projectID, milestoneID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, milestoneID).
		Delete(&models.Milestone{}).Error
}

// CreateDocument records document metadata
func (r *GormProjectRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}
