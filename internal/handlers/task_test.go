package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
)

func (suite *HandlerTestSuite) createTestTask(project *models.Project, actor *models.User, title string) *models.Task {
	task, err := suite.tasks.CreateTask(suite.ctx, services.CreateTaskInput{
		ProjectID: project.ID,
		ActorID:   actor.ID,
		Title:     title,
	})
	suite.Require().NoError(err)
	return task
}

// TestCreateTask_Success tests task creation through the API
func (suite *HandlerTestSuite) TestCreateTask_Success() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)

	w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "New Task",
		"priority":   "high",
		"project_id": project.ID,
		"due_date":   "2025-03-14T18:00:00+09:00",
	}, user.ID)
	suite.Equal(http.StatusCreated, w.Code)

	var response dto.TaskDTO
	suite.decode(w, &response)
	suite.Equal("New Task", response.Title)
	suite.Equal(models.TaskStatusTodo, response.Status)
	suite.Equal(models.TaskPriorityHigh, response.Priority)
	suite.Require().NotNil(response.AssigneeID)
	suite.Equal(user.ID, *response.AssigneeID)
	suite.Require().NotNil(response.DueDate)
	suite.True(response.DueDate.Equal(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)))
}

// TestCreateTask_MissingTitle tests binding validation
func (suite *HandlerTestSuite) TestCreateTask_MissingTitle() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)

	w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"project_id": project.ID,
	}, user.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_INPUT", suite.errorCode(w))
}

// TestCreateTask_Unauthenticated tests requests without a user
func (suite *HandlerTestSuite) TestCreateTask_Unauthenticated() {
	w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "New Task",
		"project_id": 1,
	}, 0)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// TestGetTask_Forbidden tests that non-members cannot read tasks
func (suite *HandlerTestSuite) TestGetTask_Forbidden() {
	alice := suite.createTestUser("alice", "eng")
	carol := suite.createTestUser("carol", "ops")
	project := suite.createTestProject(alice)
	task := suite.createTestTask(project, alice, "Secret")

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, carol.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/999", nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/abc", nil, alice.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestUpdateTask_NullClearsFields tests explicit nulls in a patch
func (suite *HandlerTestSuite) TestUpdateTask_NullClearsFields() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)
	task := suite.createTestTask(project, user, "Patch me")
	url := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, url, map[string]interface{}{
		"due_date": "2025-03-20T12:00:00Z",
		"status":   "in_progress",
	}, user.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskDTO
	suite.decode(w, &response)
	suite.Equal(models.TaskStatusInProgress, response.Status)
	suite.NotNil(response.DueDate)

	w = suite.request(http.MethodPatch, url, map[string]interface{}{
		"due_date":    nil,
		"assignee_id": nil,
	}, user.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	response = dto.TaskDTO{}
	suite.decode(w, &response)
	suite.Nil(response.DueDate)
	suite.Nil(response.AssigneeID)
	suite.Equal("Patch me", response.Title)
}

// TestUpdateTask_InvalidValues tests patch validation
func (suite *HandlerTestSuite) TestUpdateTask_InvalidValues() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)
	task := suite.createTestTask(project, user, "Patch me")
	url := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, url, map[string]interface{}{"status": "done"}, user.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, url, map[string]interface{}{"progress": "half"}, user.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, url, map[string]interface{}{"milestone_id": 999}, user.ID)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestListTasks_Success tests project task listing
func (suite *HandlerTestSuite) TestListTasks_Success() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)
	suite.createTestTask(project, user, "First")
	suite.createTestTask(project, user, "Second")

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks?project_id=%d&limit=1", project.ID), nil, user.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.decode(w, &response)
	suite.Len(response.Tasks, 1)
	suite.Equal(int64(2), response.TotalCount)
	suite.Equal(2, response.TotalPages)

	w = suite.request(http.MethodGet, "/api/tasks?status=bogus", nil, user.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks?project_id=x", nil, user.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestDeleteTask_Success tests task deletion
func (suite *HandlerTestSuite) TestDeleteTask_Success() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)
	task := suite.createTestTask(project, user, "Delete me")
	url := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodDelete, url, nil, user.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, url, nil, user.ID)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestAddComment_Success tests comments and the resulting notifications
func (suite *HandlerTestSuite) TestAddComment_Success() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	project := suite.createTestProject(alice)
	suite.addTestMember(project, bob)
	task := suite.createTestTask(project, alice, "Discuss")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", task.ID), map[string]string{
		"text": "What do you think @alice?",
	}, bob.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var comment dto.CommentDTO
	suite.decode(w, &comment)
	suite.Equal("bob", comment.Author.Username)

	var types []models.NotificationType
	suite.Require().NoError(suite.db.Model(&models.Notification{}).
		Where("user_id = ?", alice.ID).
		Order("id ASC").
		Pluck("type", &types).Error)
	suite.Equal([]models.NotificationType{
		models.NotificationTaskAssigned,
		models.NotificationNewComment,
		models.NotificationMention,
	}, types)
}

// TestGenerateTasks_NotConfigured tests the AI endpoint without an API key
func (suite *HandlerTestSuite) TestGenerateTasks_NotConfigured() {
	user := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(user)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks/generate", project.ID), map[string]string{
		"text": "Prepare the launch checklist by Friday",
	}, user.ID)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}
