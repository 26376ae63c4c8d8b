package services

import (
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
)

func (suite *LifecycleTestSuite) TestCreateProjectWithManager() {
	alice := suite.createUser("alice", "eng")
	mallory := suite.createUser("mallory", "pm")

	project, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{
		CreatorID:   alice.ID,
		Name:        "  Apollo  ",
		Departments: []string{"eng", " ", "design"},
		ManagerID:   &mallory.ID,
	})
	suite.Require().NoError(err)
	suite.Equal("Apollo", project.Name)
	suite.Equal(models.ProjectStatusOpen, project.Status)
	suite.Equal([]string{"eng", "design"}, project.Departments)
	suite.Require().Len(project.Members, 2)
	for _, m := range project.Members {
		suite.Equal(models.RoleManager, m.Role)
	}

	added := suite.notificationsFor(mallory.ID, models.NotificationAddedToProject)
	suite.Require().Len(added, 1)
	suite.Equal(project.ID, added[0].RelatedID)
	suite.Empty(suite.notificationsFor(alice.ID, models.NotificationAddedToProject))

	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{CreatorID: alice.ID, Name: ""})
	suite.ErrorIs(err, ErrNameRequired)

	listed, err := suite.projects.ListProjects(suite.ctx, mallory.ID)
	suite.Require().NoError(err)
	suite.Require().Len(listed, 1)
	suite.Equal(project.ID, listed[0].ID)
}

func (suite *LifecycleTestSuite) TestRegistrationFlow() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	dave := suite.createUser("dave", "sales")
	project := suite.createProject(alice, "eng")

	_, err := suite.projects.RegisterForProject(suite.ctx, project.ID, dave.ID)
	suite.ErrorIs(err, apierrors.ErrForbidden)
	suite.ErrorIs(err, ErrDepartmentNotEligible)

	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, alice.ID)
	suite.ErrorIs(err, ErrAlreadyMember)

	pending, err := suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.Require().NoError(err)
	suite.Equal(bob.ID, pending.UserID)

	requests := suite.notificationsFor(alice.ID, models.NotificationApprovalRequest)
	suite.Require().Len(requests, 1)
	suite.Equal(`bob requested to join project "Apollo"`, requests[0].Message)
	suite.Equal(bob.ID, requests[0].RelatedID)
	suite.Equal(models.RelatedUser, requests[0].RelatedKind)

	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.ErrorIs(err, apierrors.ErrConflict)
	suite.ErrorIs(err, ErrAlreadyPending)

	// Only the creator decides
	_, err = suite.projects.ApproveMember(suite.ctx, project.ID, bob.ID, bob.ID)
	suite.ErrorIs(err, ErrNotProjectCreator)

	member, err := suite.projects.ApproveMember(suite.ctx, project.ID, alice.ID, bob.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleMember, member.Role)

	detail, err := suite.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Len(detail.Members, 2)
	suite.Empty(detail.PendingMembers)

	suite.Len(suite.notificationsFor(bob.ID, models.NotificationAddedToProject), 1)

	_, err = suite.projects.ApproveMember(suite.ctx, project.ID, alice.ID, bob.ID)
	suite.ErrorIs(err, ErrPendingNotFound)

	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.ErrorIs(err, ErrAlreadyMember)
}

func (suite *LifecycleTestSuite) TestRejectMember() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	project := suite.createProject(alice, "eng")

	_, err := suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.Require().NoError(err)

	suite.ErrorIs(suite.projects.RejectMember(suite.ctx, project.ID, bob.ID, bob.ID), ErrNotProjectCreator)
	suite.Require().NoError(suite.projects.RejectMember(suite.ctx, project.ID, alice.ID, bob.ID))

	detail, err := suite.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Len(detail.Members, 1)
	suite.Empty(detail.PendingMembers)
	suite.Empty(suite.notificationsFor(bob.ID, models.NotificationAddedToProject))

	suite.ErrorIs(suite.projects.RejectMember(suite.ctx, project.ID, alice.ID, bob.ID), ErrPendingNotFound)

	// A rejected user may ask again
	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.NoError(err)
}

func (suite *LifecycleTestSuite) TestRegisterForClosedProject() {
	alice := suite.createUser("alice", "eng")
	dave := suite.createUser("dave", "sales")
	project := suite.createProject(alice, "eng")

	_, err := suite.projects.CompleteProject(suite.ctx, project.ID, alice.ID)
	suite.Require().NoError(err)

	// State is checked before eligibility
	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, dave.ID)
	suite.ErrorIs(err, apierrors.ErrInvalidState)
	suite.ErrorIs(err, ErrProjectNotOpen)

	_, err = suite.projects.RegisterForProject(suite.ctx, 999, dave.ID)
	suite.ErrorIs(err, ErrProjectNotFound)
}

func (suite *LifecycleTestSuite) TestMilestoneCreatedFanOut() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	carol := suite.createUser("carol", "eng")
	outsider := suite.createUser("outsider", "eng")
	project := suite.createProject(alice)
	suite.addMember(project, bob)
	suite.addMember(project, carol)

	// Plain members cannot add milestones
	_, err := suite.projects.CreateMilestone(suite.ctx, CreateMilestoneInput{ProjectID: project.ID, ActorID: bob.ID, Name: "M1"})
	suite.ErrorIs(err, ErrNotProjectManager)

	milestone := suite.createMilestone(project, alice, "Beta")
	suite.Equal(models.MilestoneStatusPending, milestone.Status)

	for _, user := range []*models.User{alice, bob, carol} {
		got := suite.notificationsFor(user.ID, models.NotificationMilestoneCreated)
		suite.Require().Len(got, 1, user.Username)
		suite.Equal(`Milestone "Beta" was added to project "Apollo"`, got[0].Message)
		suite.Equal(project.ID, got[0].RelatedID)
		suite.Equal(models.RelatedProject, got[0].RelatedKind)
	}
	suite.Empty(suite.notificationsFor(outsider.ID, models.NotificationMilestoneCreated))
}

func (suite *LifecycleTestSuite) TestAddDocumentNotifiesOtherMembers() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	carol := suite.createUser("carol", "ops")
	project := suite.createProject(alice)
	suite.addMember(project, bob)

	doc, err := suite.projects.AddDocument(suite.ctx, project.ID, bob.ID, "plan.pdf", "https://files.example.com/plan.pdf")
	suite.Require().NoError(err)
	suite.NotZero(doc.ID)

	got := suite.notificationsFor(alice.ID, models.NotificationNewDocument)
	suite.Require().Len(got, 1)
	suite.Equal(doc.ID, got[0].RelatedID)
	suite.Equal(models.RelatedDocument, got[0].RelatedKind)
	suite.Empty(suite.notificationsFor(bob.ID, models.NotificationNewDocument))

	_, err = suite.projects.AddDocument(suite.ctx, project.ID, carol.ID, "x.pdf", "")
	suite.ErrorIs(err, ErrNotProjectMember)

	_, err = suite.projects.AddDocument(suite.ctx, project.ID, bob.ID, " ", "")
	suite.ErrorIs(err, ErrNameRequired)

	detail, err := suite.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Len(detail.Documents, 1)
}

func (suite *LifecycleTestSuite) TestDeleteProject() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	project := suite.createProject(alice)
	suite.addMember(project, bob)
	milestone := suite.createMilestone(project, alice, "M1")
	task := suite.createTask(project, alice, "T1", models.TaskStatusTodo, &milestone.ID)
	_, err := suite.tasks.AddComment(suite.ctx, task.ID, bob.ID, "first")
	suite.Require().NoError(err)

	suite.ErrorIs(suite.projects.DeleteProject(suite.ctx, project.ID, bob.ID), ErrNotProjectCreator)
	suite.Require().NoError(suite.projects.DeleteProject(suite.ctx, project.ID, alice.ID))

	_, err = suite.projects.GetProject(suite.ctx, project.ID)
	suite.ErrorIs(err, ErrProjectNotFound)

	_, err = suite.tasks.GetTask(suite.ctx, task.ID, alice.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	var remaining int64
	suite.Require().NoError(suite.db.Model(&models.Milestone{}).Where("project_id = ?", project.ID).Count(&remaining).Error)
	suite.Zero(remaining)
	suite.Require().NoError(suite.db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&remaining).Error)
	suite.Zero(remaining)
	suite.Require().NoError(suite.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&remaining).Error)
	suite.Zero(remaining)

	listed, err := suite.projects.ListProjects(suite.ctx, bob.ID)
	suite.Require().NoError(err)
	suite.Empty(listed)
}
