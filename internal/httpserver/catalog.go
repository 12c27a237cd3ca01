package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/util"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) Catalog(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.catalog")

	resp, err := h.Svc.Catalog(ctx)
	if err != nil {
		return fail(l, "get_catalog_error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHTTP) ListGroups(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_groups")

	groups, err := h.Svc.ListGroups(ctx)
	if err != nil {
		return fail(l, "list_groups_error", err)
	}
	return c.JSON(http.StatusOK, groups)
}

// productFilter reads group_id (a uuid, or "none" for ungrouped products) and available.
// publicOnly forces available products.
func productFilter(c echo.Context, publicOnly bool) (repo.ProductFilter, error) {
	f := repo.ProductFilter{AvailableOnly: publicOnly}
	switch g := c.QueryParam("group_id"); g {
	case "":
	case "none":
		f.Ungrouped = true
	default:
		id, err := uuid.Parse(g)
		if err != nil {
			return f, err
		}
		f.GroupID = &id
	}
	if v := c.QueryParam("available"); v != "" && !publicOnly {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.AvailableOnly = b
	}
	return f, nil
}

func (h *CatalogHTTP) getProducts(c echo.Context, publicOnly bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	f, err := productFilter(c, publicOnly)
	if err != nil {
		return badRequest(l, "get_products_error", "invalid filter", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.GetProducts(ctx, f, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductPage{
		Total: total,
		Page:  offset/limit + 1,
		Limit: limit,
		Items: items,
	})
}

// GetProducts is the storefront listing; only available products are shown.
func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	return h.getProducts(c, true)
}

// AdminProducts lists every product, with an optional available filter.
func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	return h.getProducts(c, false)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "id is not a uuid", err)
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := c.QueryParam("q")
	items, err := h.Svc.Search(ctx, q)
	if err != nil {
		return fail(l, "search_error", err)
	}
	l.Debug("search_success", "query", q, "hits", len(items))
	return c.JSON(http.StatusOK, echo.Map{"query": q, "items": items})
}

func (h *CatalogHTTP) CreateGroup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_group")

	var req transport.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "group_create_error", "invalid body", err)
	}
	g, err := h.Svc.CreateGroup(ctx, req)
	if err != nil {
		return fail(l, "group_create_error", err)
	}

	l.Info("create_group_success", "group_id", g.ID)
	return c.JSON(http.StatusCreated, g)
}

func (h *CatalogHTTP) UpdateGroup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_group")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "group_update_error", "id is not a uuid", err)
	}
	var req transport.UpdateGroupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "group_update_error", "invalid body", err)
	}
	g, err := h.Svc.UpdateGroup(ctx, id, req)
	if err != nil {
		return fail(l, "group_update_error", err)
	}

	l.Info("update_group_success", "group_id", g.ID)
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHTTP) DeleteGroup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_group")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "group_delete_error", "id is not a uuid", err)
	}
	if err := h.Svc.DeleteGroup(ctx, id); err != nil {
		return fail(l, "group_delete_error", err)
	}

	l.Info("delete_group_success", "group_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}
	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "product_patch_error", "id is not a uuid", err)
	}
	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}
	p, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", "id is not a uuid", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) UploadProductImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.upload_image")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "product_image_error", "id is not a uuid", err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(l, "product_image_error", "file required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(l, "product_image_error", "cannot read file", err)
	}
	defer f.Close()

	p, err := h.Svc.UploadProductImage(ctx, id, fh.Filename, fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	if err != nil {
		return fail(l, "product_image_error", err)
	}

	l.Info("upload_product_image_success", "product_id", p.ID, "size", fh.Size)
	return c.JSON(http.StatusOK, p)
}
