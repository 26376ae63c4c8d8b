package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/middleware"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
)

// ProjectHandler handles project, membership and milestone endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Name        string   `json:"name" binding:"required,max=255"`
		Description string   `json:"description"`
		Departments []string `json:"departments"`
		ManagerID   *uint64  `json:"manager_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		Departments: req.Departments,
		ManagerID:   req.ManagerID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDetailDTO(*project))
}

// ListProjects lists the caller's projects.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	out := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = dto.ToProjectDTO(p)
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// GetProject returns project details.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), middleware.GetIDParam(c, "id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project))
}

// DeleteProject deletes a project (creator only).
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// CompleteProject closes a project.
func (h *ProjectHandler) CompleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.CompleteProject(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// Register requests membership for the caller.
func (h *ProjectHandler) Register(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	pending, err := h.projectService.RegisterForProject(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PendingMemberDTO{
		User:        dto.ToUserDTO(pending.User),
		RequestedAt: pending.RequestedAt,
	})
}

// ApproveMember accepts a pending membership request.
func (h *ProjectHandler) ApproveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	member, err := h.projectService.ApproveMember(c.Request.Context(),
		middleware.GetIDParam(c, "id"), userID, middleware.GetIDParam(c, "user_id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": member.ProjectID,
		"user_id":    member.UserID,
		"role":       member.Role,
		"joined_at":  member.JoinedAt,
	})
}

// RejectMember drops a pending membership request.
func (h *ProjectHandler) RejectMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projectService.RejectMember(c.Request.Context(),
		middleware.GetIDParam(c, "id"), userID, middleware.GetIDParam(c, "user_id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Membership request rejected"})
}

// CreateMilestone adds a milestone to a project.
func (h *ProjectHandler) CreateMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Name        string     `json:"name" binding:"required,max=255"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	milestone, err := h.projectService.CreateMilestone(c.Request.Context(), services.CreateMilestoneInput{
		ProjectID:   middleware.GetIDParam(c, "id"),
		ActorID:     userID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMilestoneDTO(*milestone))
}

// UpdateMilestone patches name, description or due_date of a milestone.
func (h *ProjectHandler) UpdateMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	milestone, err := h.projectService.UpdateMilestone(c.Request.Context(),
		middleware.GetIDParam(c, "id"), middleware.GetIDParam(c, "milestone_id"), userID, patch)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMilestoneDTO(*milestone))
}

// DeleteMilestone deletes a milestone that no task references.
func (h *ProjectHandler) DeleteMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteMilestone(c.Request.Context(),
		middleware.GetIDParam(c, "id"), middleware.GetIDParam(c, "milestone_id"), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted successfully"})
}

// CompleteMilestone marks a milestone completed.
func (h *ProjectHandler) CompleteMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	milestone, err := h.projectService.CompleteMilestone(c.Request.Context(),
		middleware.GetIDParam(c, "id"), middleware.GetIDParam(c, "milestone_id"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMilestoneDTO(*milestone))
}

// RecheckMilestone re-validates a completed milestone against its tasks.
func (h *ProjectHandler) RecheckMilestone(c *gin.Context) {
	changed, err := h.projectService.RecheckMilestone(c.Request.Context(),
		middleware.GetIDParam(c, "id"), middleware.GetIDParam(c, "milestone_id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// AddDocument records document metadata for a project.
func (h *ProjectHandler) AddDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,max=255"`
		URL  string `json:"url" binding:"omitempty,url,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	doc, err := h.projectService.AddDocument(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, req.Name, req.URL)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDocumentDTO(*doc))
}
