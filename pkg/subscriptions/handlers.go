package subscriptions

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	subscriptionService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateSubscriptionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	sub, err := h.subscriptionService.Create(ctx, auth.UserFromContext(c), CreateOptions(params))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, sub))
}

func (h *handler) listMine(c echo.Context) error {
	ctx := c.Request().Context()

	subs, err := h.subscriptionService.ListMine(ctx, auth.UserFromContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, subs))
}

func (h *handler) listAll(c echo.Context) error {
	ctx := c.Request().Context()

	subs, err := h.subscriptionService.ListAll(ctx, auth.UserFromContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, subs))
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound(resourceName)
	}

	sub, err := h.subscriptionService.Cancel(ctx, auth.UserFromContext(c), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, sub))
}
