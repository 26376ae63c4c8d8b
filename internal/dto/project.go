package dto

import (
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/models"
)

// ProjectDTO represents a project in list responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Departments []string             `json:"departments"`
	CreatorID   uint64               `json:"creator_id"`
	ManagerID   *uint64              `json:"manager_id"`
	CompletedAt *time.Time           `json:"completed_at"`
	CompletedBy *uint64              `json:"completed_by"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ProjectDetailDTO represents a project with its milestones and memberships
type ProjectDetailDTO struct {
	ProjectDTO
	Milestones     []MilestoneDTO     `json:"milestones"`
	Members        []ProjectMemberDTO `json:"members"`
	PendingMembers []PendingMemberDTO `json:"pending_members"`
	Documents      []DocumentDTO      `json:"documents"`
}

// MilestoneDTO represents a milestone in API responses
type MilestoneDTO struct {
	ID          uint64                 `json:"id"`
	ProjectID   uint64                 `json:"project_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	DueDate     *time.Time             `json:"due_date"`
	Status      models.MilestoneStatus `json:"status"`
	CompletedAt *time.Time             `json:"completed_at"`
	CompletedBy *uint64                `json:"completed_by"`
}

// ProjectMemberDTO represents a member in a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// PendingMemberDTO represents a membership request
type PendingMemberDTO struct {
	User        UserDTO   `json:"user"`
	RequestedAt time.Time `json:"requested_at"`
}

// DocumentDTO represents document metadata
type DocumentDTO struct {
	ID         uint64    `json:"id"`
	ProjectID  uint64    `json:"project_id"`
	UploaderID uint64    `json:"uploader_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToProjectDTO converts a project model to DTO
func ToProjectDTO(p models.Project) ProjectDTO {
	departments := p.Departments
	if departments == nil {
		departments = []string{}
	}
	return ProjectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Progress:    p.Progress,
		Departments: departments,
		CreatorID:   p.CreatorID,
		ManagerID:   p.ManagerID,
		CompletedAt: p.CompletedAt,
		CompletedBy: p.CompletedBy,
		CreatedAt:   p.CreatedAt,
	}
}

// ToProjectDetailDTO converts a project with preloaded relations to DTO
func ToProjectDetailDTO(p models.Project) ProjectDetailDTO {
	out := ProjectDetailDTO{
		ProjectDTO:     ToProjectDTO(p),
		Milestones:     make([]MilestoneDTO, len(p.Milestones)),
		Members:        make([]ProjectMemberDTO, len(p.Members)),
		PendingMembers: make([]PendingMemberDTO, len(p.PendingMembers)),
		Documents:      make([]DocumentDTO, len(p.Documents)),
	}

	for i, m := range p.Milestones {
		out.Milestones[i] = ToMilestoneDTO(m)
	}
	for i, m := range p.Members {
		out.Members[i] = ToProjectMemberDTO(m)
	}
	for i, m := range p.PendingMembers {
		out.PendingMembers[i] = PendingMemberDTO{User: ToUserDTO(m.User), RequestedAt: m.RequestedAt}
	}
	for i, d := range p.Documents {
		out.Documents[i] = ToDocumentDTO(d)
	}

	return out
}

// ToMilestoneDTO converts a milestone model to DTO
func ToMilestoneDTO(m models.Milestone) MilestoneDTO {
	return MilestoneDTO{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Name:        m.Name,
		Description: m.Description,
		DueDate:     m.DueDate,
		Status:      m.Status,
		CompletedAt: m.CompletedAt,
		CompletedBy: m.CompletedBy,
	}
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(m models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(m.User),
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}

// ToDocumentDTO converts a document model to DTO
func ToDocumentDTO(d models.Document) DocumentDTO {
	return DocumentDTO{
		ID:         d.ID,
		ProjectID:  d.ProjectID,
		UploaderID: d.UploaderID,
		Name:       d.Name,
		URL:        d.URL,
		CreatedAt:  d.CreatedAt,
	}
}
