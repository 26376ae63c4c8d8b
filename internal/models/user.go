package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Department   string         `gorm:"type:varchar(100);index" json:"department"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTasks []Task          `gorm:"foreignKey:AssigneeID" json:"-"`
	Projects      []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
}
