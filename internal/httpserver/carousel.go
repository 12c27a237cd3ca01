package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

type CarouselHTTP struct {
	Svc *service.CarouselService
}

func (h *CarouselHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.list")

	images, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_carousel_error", err)
	}
	return c.JSON(http.StatusOK, images)
}

func (h *CarouselHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.list_all")

	images, err := h.Svc.ListAll(ctx)
	if err != nil {
		return fail(l, "list_carousel_error", err)
	}
	return c.JSON(http.StatusOK, images)
}

func (h *CarouselHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.create")

	var req transport.CreateCarouselRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_carousel_error", "invalid body", err)
	}
	img, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_carousel_error", err)
	}

	l.Info("create_carousel_success", "image_id", img.ID, "position", img.Position)
	return c.JSON(http.StatusCreated, img)
}

// Upload takes a multipart form with file, title and link_url.
func (h *CarouselHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.upload")

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(l, "upload_carousel_error", "file required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(l, "upload_carousel_error", "cannot read file", err)
	}
	defer f.Close()

	img, err := h.Svc.Upload(ctx, c.FormValue("title"), c.FormValue("link_url"),
		fh.Filename, fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	if err != nil {
		return fail(l, "upload_carousel_error", err)
	}

	l.Info("upload_carousel_success", "image_id", img.ID, "size", fh.Size)
	return c.JSON(http.StatusCreated, img)
}

func (h *CarouselHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.update")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_carousel_error", "id is not a uuid", err)
	}
	var req transport.UpdateCarouselRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_carousel_error", "invalid body", err)
	}
	img, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return fail(l, "update_carousel_error", err)
	}
	return c.JSON(http.StatusOK, img)
}

func (h *CarouselHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_carousel_error", "id is not a uuid", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_carousel_error", err)
	}

	l.Info("delete_carousel_success", "image_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CarouselHTTP) Move(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.move")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "move_carousel_error", "id is not a uuid", err)
	}
	var req transport.MoveCarouselRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "move_carousel_error", "invalid body", err)
	}
	images, err := h.Svc.Move(ctx, id, req.To, req.Expected)
	if err != nil {
		return fail(l, "move_carousel_error", err)
	}

	l.Info("move_carousel_success", "image_id", id, "to", req.To)
	return c.JSON(http.StatusOK, images)
}

func (h *CarouselHTTP) Reorder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "carousel.reorder")

	var req transport.ReorderCarouselRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reorder_carousel_error", "invalid body", err)
	}
	images, err := h.Svc.Reorder(ctx, req.IDs, req.Expected)
	if err != nil {
		return fail(l, "reorder_carousel_error", err)
	}

	l.Info("reorder_carousel_success", "count", len(images))
	return c.JSON(http.StatusOK, images)
}
