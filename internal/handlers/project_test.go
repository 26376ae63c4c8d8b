package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
)

func (suite *HandlerTestSuite) createTestMilestone(project *models.Project, actor *models.User, name string) *models.Milestone {
	milestone, err := suite.projects.CreateMilestone(suite.ctx, services.CreateMilestoneInput{
		ProjectID: project.ID,
		ActorID:   actor.ID,
		Name:      name,
	})
	suite.Require().NoError(err)
	return milestone
}

// TestCreateProject_Success tests project creation with a separate manager
func (suite *HandlerTestSuite) TestCreateProject_Success() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")

	w := suite.request(http.MethodPost, "/api/projects", map[string]interface{}{
		"name":        "Apollo",
		"departments": []string{" eng ", ""},
		"manager_id":  bob.ID,
	}, alice.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var response dto.ProjectDetailDTO
	suite.decode(w, &response)
	suite.Equal("Apollo", response.Name)
	suite.Equal(models.ProjectStatusOpen, response.Status)
	suite.Equal([]string{"eng"}, response.Departments)
	suite.Require().NotNil(response.ManagerID)
	suite.Equal(bob.ID, *response.ManagerID)
	suite.Len(response.Members, 2)

	w = suite.request(http.MethodGet, "/api/projects", nil, bob.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}
	suite.decode(w, &list)
	suite.Len(list.Projects, 1)
}

// TestCreateProject_MissingName tests binding validation
func (suite *HandlerTestSuite) TestCreateProject_MissingName() {
	alice := suite.createTestUser("alice", "eng")

	w := suite.request(http.MethodPost, "/api/projects", map[string]interface{}{
		"description": "no name",
	}, alice.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestGetProject_NotFound tests project lookups
func (suite *HandlerTestSuite) TestGetProject_NotFound() {
	alice := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(alice)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/projects/404", nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", suite.errorCode(w))
}

// TestMembershipFlow tests registration, approval and rejection
func (suite *HandlerTestSuite) TestMembershipFlow() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	carol := suite.createTestUser("carol", "ops")
	dave := suite.createTestUser("dave", "eng")
	project := suite.createTestProject(alice, "eng")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	w := suite.request(http.MethodPost, base+"/register", nil, carol.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, base+"/register", nil, bob.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var pending dto.PendingMemberDTO
	suite.decode(w, &pending)
	suite.Equal("bob", pending.User.Username)

	w = suite.request(http.MethodPost, base+"/register", nil, bob.ID)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("%s/members/%d/approve", base, bob.ID), nil, bob.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("%s/members/%d/approve", base, bob.ID), nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var member struct {
		UserID uint64             `json:"user_id"`
		Role   models.ProjectRole `json:"role"`
	}
	suite.decode(w, &member)
	suite.Equal(bob.ID, member.UserID)
	suite.Equal(models.RoleMember, member.Role)

	w = suite.request(http.MethodPost, base+"/register", nil, dave.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("%s/members/%d/reject", base, dave.ID), nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("%s/members/%d/reject", base, dave.ID), nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, base+"/members/x/approve", nil, alice.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestMilestoneEndpoints tests milestone editing and deletion rules
func (suite *HandlerTestSuite) TestMilestoneEndpoints() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	project := suite.createTestProject(alice)
	suite.addTestMember(project, bob)
	base := fmt.Sprintf("/api/projects/%d/milestones", project.ID)

	w := suite.request(http.MethodPost, base, map[string]interface{}{"name": "Beta"}, bob.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, base, map[string]interface{}{"name": "Beta"}, alice.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var milestone dto.MilestoneDTO
	suite.decode(w, &milestone)
	suite.Equal(models.MilestoneStatusPending, milestone.Status)
	url := fmt.Sprintf("%s/%d", base, milestone.ID)

	w = suite.request(http.MethodPatch, url, map[string]interface{}{"status": "completed"}, alice.ID)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_INPUT", suite.errorCode(w))

	w = suite.request(http.MethodPatch, url, map[string]interface{}{"name": "Beta 2"}, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	milestone = dto.MilestoneDTO{}
	suite.decode(w, &milestone)
	suite.Equal("Beta 2", milestone.Name)

	_, err := suite.tasks.CreateTask(suite.ctx, services.CreateTaskInput{
		ProjectID:   project.ID,
		ActorID:     bob.ID,
		Title:       "Ship it",
		MilestoneID: &milestone.ID,
	})
	suite.Require().NoError(err)

	w = suite.request(http.MethodPost, url+"/complete", nil, alice.ID)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("INVALID_STATE", suite.errorCode(w))

	w = suite.request(http.MethodDelete, url, nil, alice.ID)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", suite.errorCode(w))

	w = suite.request(http.MethodPost, url+"/recheck", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var recheck struct {
		Changed bool `json:"changed"`
	}
	suite.decode(w, &recheck)
	suite.False(recheck.Changed)

	empty := suite.createTestMilestone(project, alice, "Gamma")
	w = suite.request(http.MethodDelete, fmt.Sprintf("%s/%d", base, empty.ID), nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)
}

// TestCompleteProject tests closing a project
func (suite *HandlerTestSuite) TestCompleteProject() {
	alice := suite.createTestUser("alice", "eng")
	project := suite.createTestProject(alice)
	url := fmt.Sprintf("/api/projects/%d/complete", project.ID)

	task, err := suite.tasks.CreateTask(suite.ctx, services.CreateTaskInput{
		ProjectID: project.ID,
		ActorID:   alice.ID,
		Title:     "Wrap up",
	})
	suite.Require().NoError(err)

	w := suite.request(http.MethodPost, url, nil, alice.ID)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("INVALID_STATE", suite.errorCode(w))

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]interface{}{
		"status": "completed",
	}, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, url, nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var response dto.ProjectDTO
	suite.decode(w, &response)
	suite.Equal(models.ProjectStatusClosed, response.Status)
	suite.Equal(100, response.Progress)
	suite.NotNil(response.CompletedAt)
}

// TestAddDocument tests document metadata uploads
func (suite *HandlerTestSuite) TestAddDocument() {
	alice := suite.createTestUser("alice", "eng")
	carol := suite.createTestUser("carol", "ops")
	project := suite.createTestProject(alice)
	url := fmt.Sprintf("/api/projects/%d/documents", project.ID)

	w := suite.request(http.MethodPost, url, map[string]string{"name": "Plan", "url": "not a url"}, alice.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, url, map[string]string{"name": "Plan"}, carol.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, url, map[string]string{"name": "Plan", "url": "https://example.com/plan.pdf"}, alice.ID)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var doc dto.DocumentDTO
	suite.decode(w, &doc)
	suite.Equal("Plan", doc.Name)
	suite.Equal(alice.ID, doc.UploaderID)
}

// TestDeleteProject tests that only the creator can delete
func (suite *HandlerTestSuite) TestDeleteProject() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	project := suite.createTestProject(alice)
	suite.addTestMember(project, bob)
	url := fmt.Sprintf("/api/projects/%d", project.ID)

	w := suite.request(http.MethodDelete, url, nil, bob.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, url, nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, url, nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)
}
