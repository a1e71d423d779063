package publications

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/etag"
	"github.com/pkg/errors"
)

type handler struct {
	publicationService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreatePublicationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pub, err := h.publicationService.Create(ctx, auth.UserFromContext(c), params)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, pub))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListPublicationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	limit := DefaultLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	// An empty ?type= means no filter.
	var typ *string
	if params.Type != "" {
		typ = &params.Type
	}

	pubs, err := h.publicationService.ListPublic(ctx, ListPublicOptions{
		Skip:  params.Skip,
		Limit: limit,
		Type:  typ,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return etag.JSON(c, http.StatusOK, pubs)
}

func (h *handler) listAll(c echo.Context) error {
	ctx := c.Request().Context()

	pubs, err := h.publicationService.ListAllForAdmin(ctx, auth.UserFromContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return etag.JSON(c, http.StatusOK, pubs)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound(resourceName)
	}

	pub, err := h.publicationService.Retrieve(ctx, id, auth.UserFromContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return etag.JSON(c, http.StatusOK, pub)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.UserFromContext(c)

	// Authorization comes before anything about the target is revealed.
	if err := auth.Authorize(actor, auth.ActionUpdatePublication); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound(resourceName)
	}

	params := UpdatePublicationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pub, err := h.publicationService.Update(ctx, id, actor, params)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pub))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.UserFromContext(c)

	if err := auth.Authorize(actor, auth.ActionDeletePublication); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound(resourceName)
	}

	if err := h.publicationService.SoftDelete(ctx, id, actor); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
