package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/project-lifecycle-api/internal/dto"
	"github.com/yukikurage/project-lifecycle-api/internal/models"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
)

func (suite *HandlerTestSuite) createTestNotification(user *models.User, relatedID uint64) *models.Notification {
	n, err := suite.notifier.Create(suite.ctx, services.NotificationInput{
		UserID:      user.ID,
		Type:        models.NotificationTaskDue,
		Message:     fmt.Sprintf("Task %d is due soon", relatedID),
		RelatedID:   relatedID,
		RelatedKind: models.RelatedTask,
	})
	suite.Require().NoError(err)
	return n
}

// TestListNotifications_Success tests listing with pagination and unread count
func (suite *HandlerTestSuite) TestListNotifications_Success() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	for i := uint64(1); i <= 3; i++ {
		suite.createTestNotification(alice, i)
	}
	suite.createTestNotification(bob, 9)

	w := suite.request(http.MethodGet, "/api/notifications?page=1&limit=2", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.NotificationListResponse
	suite.decode(w, &response)
	suite.Len(response.Notifications, 2)
	suite.Equal(int64(3), response.Unread)
	suite.Equal(int64(3), response.Pagination.Total)
	suite.Equal(2, response.Pagination.Limit)
	for _, n := range response.Notifications {
		suite.False(n.Read)
		suite.Equal(models.NotificationTaskDue, n.Type)
	}

	w = suite.request(http.MethodGet, "/api/notifications", nil, 0)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// TestMarkRead tests reading one notification and ownership checks
func (suite *HandlerTestSuite) TestMarkRead() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	n := suite.createTestNotification(alice, 1)
	url := fmt.Sprintf("/api/notifications/%d/read", n.ID)

	w := suite.request(http.MethodPost, url, nil, bob.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, url, nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var response dto.NotificationDTO
	suite.decode(w, &response)
	suite.True(response.Read)

	w = suite.request(http.MethodGet, "/api/notifications/unread-count", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var count struct {
		Unread int64 `json:"unread"`
	}
	suite.decode(w, &count)
	suite.Equal(int64(0), count.Unread)

	w = suite.request(http.MethodPost, "/api/notifications/999/read", nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestMarkAllRead tests bulk reads
func (suite *HandlerTestSuite) TestMarkAllRead() {
	alice := suite.createTestUser("alice", "eng")
	suite.createTestNotification(alice, 1)
	suite.createTestNotification(alice, 2)

	w := suite.request(http.MethodPost, "/api/notifications/read-all", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var response struct {
		Updated int64 `json:"updated"`
	}
	suite.decode(w, &response)
	suite.Equal(int64(2), response.Updated)

	w = suite.request(http.MethodPost, "/api/notifications/read-all", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &response)
	suite.Equal(int64(0), response.Updated)
}

// TestDeleteNotifications tests single and bulk deletion
func (suite *HandlerTestSuite) TestDeleteNotifications() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	first := suite.createTestNotification(alice, 1)
	suite.createTestNotification(alice, 2)
	suite.createTestNotification(alice, 3)
	url := fmt.Sprintf("/api/notifications/%d", first.ID)

	w := suite.request(http.MethodDelete, url, nil, bob.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, url, nil, alice.ID)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, url, nil, alice.ID)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, "/api/notifications", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var response struct {
		Deleted int64 `json:"deleted"`
	}
	suite.decode(w, &response)
	suite.Equal(int64(2), response.Deleted)
}

func (suite *HandlerTestSuite) createTestAdmin(username string) *models.User {
	admin := suite.createTestUser(username, "")
	suite.Require().NoError(suite.db.Model(admin).Update("is_admin", true).Error)
	return admin
}

// TestAssignDepartment tests department changes and the resulting notification
func (suite *HandlerTestSuite) TestAssignDepartment() {
	root := suite.createTestAdmin("root")
	alice := suite.createTestUser("alice", "")
	url := fmt.Sprintf("/api/users/%d/department", alice.ID)

	w := suite.request(http.MethodPut, url, map[string]string{}, root.ID)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPut, "/api/users/999/department", map[string]string{"department": "eng"}, root.ID)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPut, url, map[string]string{"department": "eng"}, 0)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPut, url, map[string]string{"department": "eng"}, root.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal("eng", user.Department)

	w = suite.request(http.MethodGet, "/api/notifications", nil, alice.ID)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.NotificationListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Notifications, 1)
	suite.Equal(models.NotificationAddedToDepartment, list.Notifications[0].Type)
}

// TestSelfReassignmentCannotBypassRegistration tests that a user outside the
// eligible departments cannot move themselves in
func (suite *HandlerTestSuite) TestSelfReassignmentCannotBypassRegistration() {
	alice := suite.createTestUser("alice", "eng")
	bob := suite.createTestUser("bob", "eng")
	mallory := suite.createTestUser("mallory", "sales")
	project := suite.createTestProject(alice, "eng")
	register := fmt.Sprintf("/api/projects/%d/register", project.ID)

	w := suite.request(http.MethodPost, register, nil, mallory.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPut, fmt.Sprintf("/api/users/%d/department", mallory.ID),
		map[string]string{"department": "eng"}, mallory.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPut, fmt.Sprintf("/api/users/%d/department", bob.ID),
		map[string]string{"department": "sales"}, mallory.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, register, nil, mallory.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, bob.ID).Error)
	suite.Equal("eng", stored.Department)
}
