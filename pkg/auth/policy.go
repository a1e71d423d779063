package auth

import (
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
)

// Action names something an actor may attempt.
type Action string

const (
	ActionCreatePublication     Action = "publications:create"
	ActionUpdatePublication     Action = "publications:update"
	ActionDeletePublication     Action = "publications:delete"
	ActionListAllPublications   Action = "publications:list_all"
	ActionViewHiddenPublication Action = "publications:view_hidden"
	ActionManageUsers           Action = "users:manage"
	ActionCreateSubscription    Action = "subscriptions:create"
	ActionCancelSubscription    Action = "subscriptions:cancel"
	ActionListAllSubscriptions  Action = "subscriptions:list_all"
)

const (
	msgNotEnoughPermissions = "Not enough permissions"
	msgInactiveUser         = "Inactive user"
)

type requirement struct {
	admin  bool
	active bool
}

var requirements = map[Action]requirement{
	ActionCreatePublication:     {admin: true, active: true},
	ActionUpdatePublication:     {admin: true, active: true},
	ActionDeletePublication:     {admin: true, active: true},
	ActionListAllPublications:   {admin: true},
	ActionViewHiddenPublication: {admin: true},
	ActionManageUsers:           {admin: true, active: true},
	ActionCreateSubscription:    {active: true},
	ActionCancelSubscription:    {active: true},
	ActionListAllSubscriptions:  {admin: true},
}

// Authorize returns nil when actor may perform action and a Forbidden error
// otherwise. A nil actor is anonymous. Unknown actions are always denied.
func Authorize(actor *models.User, action Action) error {
	req, ok := requirements[action]
	if !ok || actor == nil {
		return errcodes.Forbidden(msgNotEnoughPermissions)
	}
	if req.admin && !actor.IsAdmin() {
		return errcodes.Forbidden(msgNotEnoughPermissions)
	}
	if req.active && !actor.IsActive {
		return errcodes.Forbidden(msgInactiveUser)
	}
	return nil
}

// Can is Authorize as a predicate.
func Can(actor *models.User, action Action) bool {
	return Authorize(actor, action) == nil
}
