package testutils

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/newsstandhq/newsstand/pkg/subscriptions"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db                  *bun.DB
	subscriptionService *subscriptions.Service
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" default:"user" validate:"oneof=admin user"`
	IsActive *bool  `json:"is_active"`
}

// createUser creates a user with any role and activity, bypassing the
// registration rules.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	_, err = h.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, user)
}

type deleteAllResponse struct {
	Subscriptions int64 `json:"subscriptions"`
	Publications  int64 `json:"publications"`
	Users         int64 `json:"users"`
}

// deleteAll wipes every table, children first.
// DELETE /test/data.
func (h *handler) deleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	resp := deleteAllResponse{}

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, target := range []struct {
			model interface{}
			count *int64
		}{
			{(*models.Subscription)(nil), &resp.Subscriptions},
			{(*models.Publication)(nil), &resp.Publications},
			{(*models.User)(nil), &resp.Users},
		} {
			result, err := tx.NewDelete().Model(target.model).Where("1=1").Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			*target.count, _ = result.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete test data")
	}

	return c.JSON(http.StatusOK, resp)
}

// lapseSubscription moves a subscription's end date into the past without
// touching its status, leaving it for the next expiry sweep.
// POST /test/subscriptions/:id/lapse.
func (h *handler) lapseSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Subscription")
	}

	sub := &models.Subscription{}
	res, err := h.db.NewUpdate().
		Model(sub).
		Set("end_date = ?", time.Now().UTC().Add(-time.Minute)).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Subscription")
	}

	return c.JSON(http.StatusOK, sub)
}

type expireResponse struct {
	Expired int64 `json:"expired"`
}

// expireSubscriptions runs the expiry sweep immediately.
// POST /test/subscriptions/expire.
func (h *handler) expireSubscriptions(c echo.Context) error {
	n, err := h.subscriptionService.ExpireDue(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, expireResponse{Expired: n})
}
