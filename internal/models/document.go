package models

import "time"

// Document is the metadata of a file attached to a project. The file itself
// lives in external storage.
type Document struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	ProjectID  uint64    `gorm:"not null;index" json:"project_id"`
	UploaderID uint64    `gorm:"not null" json:"uploader_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	URL        string    `gorm:"type:varchar(1024)" json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}
