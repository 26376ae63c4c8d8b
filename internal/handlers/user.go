package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/middleware"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// AssignDepartment moves a user into a department (administrators only)
func (h *UserHandler) AssignDepartment(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Department string `json:"department" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.AssignDepartment(c.Request.Context(), actorID, middleware.GetIDParam(c, "id"), req.Department)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
