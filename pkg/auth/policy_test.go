package auth

import (
	"net/http"
	"testing"

	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	adminActive := &models.User{Role: models.RoleAdmin, IsActive: true}
	adminInactive := &models.User{Role: models.RoleAdmin, IsActive: false}
	userActive := &models.User{Role: models.RoleUser, IsActive: true}
	userInactive := &models.User{Role: models.RoleUser, IsActive: false}

	actors := []struct {
		name string
		user *models.User
	}{
		{"admin active", adminActive},
		{"admin inactive", adminInactive},
		{"user active", userActive},
		{"user inactive", userInactive},
		{"anonymous", nil},
	}

	// allowed lists, per action, which of the actors above may act.
	tests := []struct {
		action  Action
		allowed []bool
	}{
		{ActionCreatePublication, []bool{true, false, false, false, false}},
		{ActionUpdatePublication, []bool{true, false, false, false, false}},
		{ActionDeletePublication, []bool{true, false, false, false, false}},
		{ActionListAllPublications, []bool{true, true, false, false, false}},
		{ActionViewHiddenPublication, []bool{true, true, false, false, false}},
		{ActionManageUsers, []bool{true, false, false, false, false}},
		{ActionCreateSubscription, []bool{true, false, true, false, false}},
		{ActionCancelSubscription, []bool{true, false, true, false, false}},
		{ActionListAllSubscriptions, []bool{true, true, false, false, false}},
	}

	for _, tt := range tests {
		for i, actor := range actors {
			t.Run(string(tt.action)+"/"+actor.name, func(t *testing.T) {
				err := Authorize(actor.user, tt.action)
				if tt.allowed[i] {
					assert.NoError(t, err)
					assert.True(t, Can(actor.user, tt.action))
					return
				}
				require.Error(t, err)
				var codeErr *errcodes.Error
				require.ErrorAs(t, err, &codeErr)
				assert.Equal(t, http.StatusForbidden, codeErr.HTTPCode)
				assert.Equal(t, "forbidden", codeErr.Code)
				assert.False(t, Can(actor.user, tt.action))
			})
		}
	}
}

func TestAuthorize_Messages(t *testing.T) {
	t.Parallel()

	err := Authorize(&models.User{Role: models.RoleUser, IsActive: true}, ActionCreatePublication)
	assert.EqualError(t, err, "Not enough permissions")

	err = Authorize(&models.User{Role: models.RoleAdmin, IsActive: false}, ActionCreatePublication)
	assert.EqualError(t, err, "Inactive user")
}

func TestAuthorize_UnknownAction(t *testing.T) {
	t.Parallel()

	err := Authorize(&models.User{Role: models.RoleAdmin, IsActive: true}, Action("books:burn"))
	require.Error(t, err)
}
