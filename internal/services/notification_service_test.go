package services

import (
	"time"

	"github.com/panjf2000/ants/v2"

	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/utils"
	"go.uber.org/zap"
)

func (suite *LifecycleTestSuite) notify(user *models.User, t models.NotificationType, relatedID uint64) *models.Notification {
	n, err := suite.notifications.Create(suite.ctx, NotificationInput{
		UserID:      user.ID,
		Type:        t,
		Message:     "something happened",
		RelatedID:   relatedID,
		RelatedKind: models.RelatedTask,
	})
	suite.Require().NoError(err)
	return n
}

func (suite *LifecycleTestSuite) TestDeliveryFailureKeepsNotification() {
	alice := suite.createUser("alice", "eng")
	suite.mailer.fail = true

	n, err := suite.notifications.Create(suite.ctx, NotificationInput{
		UserID:      alice.ID,
		Type:        models.NotificationTaskDue,
		Message:     "Task is due",
		RelatedID:   7,
		RelatedKind: models.RelatedTask,
	})
	suite.Require().NoError(err)
	suite.NotZero(n.ID)
	suite.True(n.CreatedAt.Equal(testEpoch))
	suite.Empty(suite.mailer.Sent())

	stored, err := suite.notificationRepo.FindByID(suite.ctx, n.ID)
	suite.Require().NoError(err)
	suite.Equal("Task is due", stored.Message)
}

func (suite *LifecycleTestSuite) TestDrainWaitsForQueuedDeliveries() {
	alice := suite.createUser("alice", "eng")
	suite.mailer.delay = 50 * time.Millisecond

	pool, err := ants.NewPool(2)
	suite.Require().NoError(err)
	notifications := NewNotificationService(suite.notificationRepo, suite.userRepo, suite.mailer, suite.clock, zap.NewNop(), WithDeliveryPool(pool))

	for i := uint64(1); i <= 3; i++ {
		_, err := notifications.Create(suite.ctx, NotificationInput{
			UserID:      alice.ID,
			Type:        models.NotificationMention,
			Message:     "mentioned",
			RelatedID:   i,
			RelatedKind: models.RelatedTask,
		})
		suite.Require().NoError(err)
	}

	suite.Require().NoError(notifications.Drain(5 * time.Second))
	suite.Len(suite.mailer.Sent(), 3)
	suite.True(pool.IsClosed())

	// Without a pool there is nothing to wait for
	suite.NoError(suite.notifications.Drain(time.Millisecond))
}

func (suite *LifecycleTestSuite) TestUserWithoutEmailIsNotMailed() {
	user := &models.User{Username: "noemail", PasswordHash: "x"}
	suite.Require().NoError(suite.userRepo.Create(suite.ctx, user))

	suite.notify(user, models.NotificationMention, 1)
	suite.Empty(suite.mailer.Sent())
	suite.Len(suite.notificationsFor(user.ID, models.NotificationMention), 1)
}

func (suite *LifecycleTestSuite) TestFindDuplicateWindow() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	created := suite.notify(alice, models.NotificationTaskDue, 42)

	suite.clock.Advance(23 * time.Hour)
	dup, err := suite.notifications.FindDuplicate(suite.ctx, 42, models.RelatedTask, models.NotificationTaskDue, alice.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(dup)
	suite.Equal(created.ID, dup.ID)

	// Every key field has to match
	for name, lookup := range map[string]func() (*models.Notification, error){
		"other user": func() (*models.Notification, error) {
			return suite.notifications.FindDuplicate(suite.ctx, 42, models.RelatedTask, models.NotificationTaskDue, bob.ID)
		},
		"other type": func() (*models.Notification, error) {
			return suite.notifications.FindDuplicate(suite.ctx, 42, models.RelatedTask, models.NotificationMention, alice.ID)
		},
		"other related id": func() (*models.Notification, error) {
			return suite.notifications.FindDuplicate(suite.ctx, 43, models.RelatedTask, models.NotificationTaskDue, alice.ID)
		},
		"other related kind": func() (*models.Notification, error) {
			return suite.notifications.FindDuplicate(suite.ctx, 42, models.RelatedProject, models.NotificationTaskDue, alice.ID)
		},
	} {
		got, err := lookup()
		suite.Require().NoError(err, name)
		suite.Nil(got, name)
	}

	suite.clock.Advance(2 * time.Hour)
	dup, err = suite.notifications.FindDuplicate(suite.ctx, 42, models.RelatedTask, models.NotificationTaskDue, alice.ID)
	suite.Require().NoError(err)
	suite.Nil(dup)
}

func (suite *LifecycleTestSuite) TestNotificationOwnership() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")
	n := suite.notify(alice, models.NotificationMention, 1)

	_, err := suite.notifications.MarkRead(suite.ctx, n.ID, bob.ID)
	suite.ErrorIs(err, apierrors.ErrForbidden)
	suite.ErrorIs(suite.notifications.Delete(suite.ctx, n.ID, bob.ID), ErrNotNotificationOwner)

	read, err := suite.notifications.MarkRead(suite.ctx, n.ID, alice.ID)
	suite.Require().NoError(err)
	suite.True(read.Read)

	// Marking twice is harmless
	read, err = suite.notifications.MarkRead(suite.ctx, n.ID, alice.ID)
	suite.Require().NoError(err)
	suite.True(read.Read)

	suite.Require().NoError(suite.notifications.Delete(suite.ctx, n.ID, alice.ID))
	_, err = suite.notifications.MarkRead(suite.ctx, n.ID, alice.ID)
	suite.ErrorIs(err, ErrNotificationNotFound)
}

func (suite *LifecycleTestSuite) TestListAndBulkOperations() {
	alice := suite.createUser("alice", "eng")
	bob := suite.createUser("bob", "eng")

	first := suite.notify(alice, models.NotificationMention, 1)
	suite.clock.Advance(time.Minute)
	second := suite.notify(alice, models.NotificationNewComment, 2)
	suite.clock.Advance(time.Minute)
	third := suite.notify(alice, models.NotificationTaskAssigned, 3)
	suite.notify(bob, models.NotificationMention, 1)

	page, total, err := suite.notifications.List(suite.ctx, alice.ID, utils.NewPaginationParams(1, 2))
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(page, 2)
	suite.Equal(third.ID, page[0].ID)
	suite.Equal(second.ID, page[1].ID)

	page, _, err = suite.notifications.List(suite.ctx, alice.ID, utils.NewPaginationParams(2, 2))
	suite.Require().NoError(err)
	suite.Require().Len(page, 1)
	suite.Equal(first.ID, page[0].ID)

	_, err = suite.notifications.MarkRead(suite.ctx, second.ID, alice.ID)
	suite.Require().NoError(err)

	unread, err := suite.notifications.UnreadCount(suite.ctx, alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), unread)

	marked, err := suite.notifications.MarkAllRead(suite.ctx, alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), marked)

	unread, err = suite.notifications.UnreadCount(suite.ctx, alice.ID)
	suite.Require().NoError(err)
	suite.Zero(unread)

	unread, err = suite.notifications.UnreadCount(suite.ctx, bob.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), unread)

	deleted, err := suite.notifications.DeleteAll(suite.ctx, alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), deleted)

	_, total, err = suite.notifications.List(suite.ctx, bob.ID, utils.NewPaginationParams(1, 20))
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
}

func (suite *LifecycleTestSuite) TestAssignDepartment() {
	bob := suite.createUser("bob", "")
	root := suite.createUser("root", "")
	_, err := suite.users.GrantAdmin(suite.ctx, "root")
	suite.Require().NoError(err)

	user, err := suite.users.AssignDepartment(suite.ctx, root.ID, bob.ID, " eng ")
	suite.Require().NoError(err)
	suite.Equal("eng", user.Department)

	got := suite.notificationsFor(bob.ID, models.NotificationAddedToDepartment)
	suite.Require().Len(got, 1)
	suite.Equal("You have been added to the eng department", got[0].Message)

	_, err = suite.users.AssignDepartment(suite.ctx, root.ID, bob.ID, "")
	suite.ErrorIs(err, ErrDepartmentRequired)

	_, err = suite.users.AssignDepartment(suite.ctx, root.ID, 999, "eng")
	suite.ErrorIs(err, ErrUserNotFound)

	// Newly eligible users can register
	alice := suite.createUser("alice", "eng")
	project := suite.createProject(alice, "eng")
	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, bob.ID)
	suite.NoError(err)
}

func (suite *LifecycleTestSuite) TestAssignDepartmentRequiresAdministrator() {
	alice := suite.createUser("alice", "eng")
	mallory := suite.createUser("mallory", "sales")
	project := suite.createProject(alice, "eng")

	_, err := suite.users.AssignDepartment(suite.ctx, mallory.ID, mallory.ID, "eng")
	suite.ErrorIs(err, ErrNotAdministrator)
	suite.ErrorIs(err, apierrors.ErrForbidden)

	_, err = suite.users.AssignDepartment(suite.ctx, mallory.ID, alice.ID, "sales")
	suite.ErrorIs(err, ErrNotAdministrator)

	suite.Empty(suite.notificationsFor(mallory.ID, models.NotificationAddedToDepartment))
	suite.Equal("eng", suite.reloadUser(alice.ID).Department)

	_, err = suite.projects.RegisterForProject(suite.ctx, project.ID, mallory.ID)
	suite.ErrorIs(err, ErrDepartmentNotEligible)
}

func (suite *LifecycleTestSuite) TestGrantAdmin() {
	suite.createUser("root", "")

	user, err := suite.users.GrantAdmin(suite.ctx, "root")
	suite.Require().NoError(err)
	suite.True(user.IsAdmin)
	suite.True(suite.reloadUser(user.ID).IsAdmin)

	again, err := suite.users.GrantAdmin(suite.ctx, "root")
	suite.Require().NoError(err)
	suite.True(again.IsAdmin)

	_, err = suite.users.GrantAdmin(suite.ctx, "nobody")
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *LifecycleTestSuite) TestSignupAndLogin() {
	user, err := suite.auth.Signup(suite.ctx, SignupInput{
		Username:   "erin",
		Password:   "password123",
		Email:      "erin@example.com",
		Department: "eng",
	})
	suite.Require().NoError(err)
	suite.NotEqual("password123", user.PasswordHash)

	_, err = suite.auth.Signup(suite.ctx, SignupInput{Username: "erin", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameTaken)

	_, err = suite.auth.Signup(suite.ctx, SignupInput{Username: "frank", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)

	_, err = suite.auth.Signup(suite.ctx, SignupInput{Username: " ", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameRequired)

	loggedIn, err := suite.auth.Login(suite.ctx, LoginInput{Username: "erin", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, loggedIn.ID)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Username: "erin", Password: "wrong-password"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Username: "nobody", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	got, err := suite.auth.GetUser(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal("eng", got.Department)
}
