package repository

import (
	"context"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernames finds every user whose username is in names
func (r *GormUserRepository) FindByUsernames(ctx context.Context, names []string) ([]models.User, error) {
	var users []models.User
	if len(names) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("username IN ?", names).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateDepartment sets a user's department
func (r *GormUserRepository) UpdateDepartment(ctx context.Context, id uint64, department string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("department", department)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAdmin grants or revokes administrator rights
func (r *GormUserRepository) SetAdmin(ctx context.Context, id uint64, admin bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", admin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
