package services

import (
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
)

// Service errors. Each one matches its kind sentinel in internal/errors
// through errors.Is, so callers can branch on either.
var (
	ErrUserNotFound         = apierrors.NotFoundError("user not found")
	ErrProjectNotFound      = apierrors.NotFoundError("project not found")
	ErrMilestoneNotFound    = apierrors.NotFoundError("milestone not found")
	ErrTaskNotFound         = apierrors.NotFoundError("task not found")
	ErrPendingNotFound      = apierrors.NotFoundError("user has no pending membership request")
	ErrNotificationNotFound = apierrors.NotFoundError("notification not found")

	ErrMilestoneHasIncompleteTasks = apierrors.InvalidStateError("milestone has incomplete tasks")
	ErrProjectHasIncompleteTasks   = apierrors.InvalidStateError("project has incomplete tasks")
	ErrProjectHasPendingMilestones = apierrors.InvalidStateError("project has incomplete milestones")
	ErrProjectNotOpen              = apierrors.InvalidStateError("project is not open for registration")

	ErrNotProjectCreator     = apierrors.ForbiddenError("only the project creator can perform this action")
	ErrNotProjectMember      = apierrors.ForbiddenError("user is not a member of the project")
	ErrNotProjectManager     = apierrors.ForbiddenError("only project managers can perform this action")
	ErrDepartmentNotEligible = apierrors.ForbiddenError("user's department is not eligible for this project")
	ErrNotNotificationOwner  = apierrors.ForbiddenError("notification belongs to another user")
	ErrNotAdministrator      = apierrors.ForbiddenError("only administrators can assign departments")

	ErrAlreadyMember       = apierrors.ConflictError("user is already a member of the project")
	ErrAlreadyPending      = apierrors.ConflictError("user already requested membership")
	ErrMilestoneReferenced = apierrors.ConflictError("milestone is still referenced by tasks")
	ErrUsernameTaken       = apierrors.ConflictError("username already exists")

	ErrTitleRequired           = apierrors.InvalidInputError("title is required")
	ErrNameRequired            = apierrors.InvalidInputError("name is required")
	ErrInvalidTaskStatus       = apierrors.InvalidInputError("invalid task status")
	ErrInvalidTaskPriority     = apierrors.InvalidInputError("invalid task priority")
	ErrInvalidProgress         = apierrors.InvalidInputError("progress must be between 0 and 100")
	ErrProtectedMilestoneField = apierrors.InvalidInputError("milestone status and completion fields cannot be set directly")
	ErrInvalidMilestoneField   = apierrors.InvalidInputError("invalid milestone field value")
	ErrCommentEmpty            = apierrors.InvalidInputError("comment text is required")
	ErrDepartmentRequired      = apierrors.InvalidInputError("department is required")
	ErrPasswordTooShort        = apierrors.InvalidInputError("password too short")
	ErrUsernameRequired        = apierrors.InvalidInputError("username is required")

	ErrInvalidCredentials = apierrors.NewAPIError(apierrors.ErrCodeInvalidCredentials, "invalid username or password")

	ErrAIServiceNotConfigured = apierrors.NewAPIError(apierrors.ErrCodeServiceUnavailable, "AI service is not configured")
	ErrAINoTasksGenerated     = apierrors.NewAPIError(apierrors.ErrCodeServiceUnavailable, "AI did not generate any tasks")
	ErrAINoValidTasks         = apierrors.NewAPIError(apierrors.ErrCodeServiceUnavailable, "no valid tasks could be drafted from AI output")
)
