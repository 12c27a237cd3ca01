package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	authmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}

	item, err := h.Svc.AddToCart(ctx, userID, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	productID, err := uuidParam(c, "product_id")
	if err != nil {
		return badRequest(l, "update_cart_error", "product_id is not a uuid", err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_error", "invalid body", err)
	}
	if req.Quantity == nil {
		l.Warn("update_cart_error", "status", http.StatusBadRequest, "reason", "quantity missing")
		return echo.NewHTTPError(http.StatusBadRequest, "quantity required")
	}

	resp, err := h.Svc.UpdateQuantity(ctx, userID, productID, *req.Quantity)
	if err != nil {
		return fail(l, "update_cart_error", err)
	}

	l.Info("update_cart_success", "product_id", productID, "quantity", resp.Quantity, "deleted", resp.Deleted)
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	productID, err := uuidParam(c, "product_id")
	if err != nil {
		return badRequest(l, "remove_from_cart_error", "product_id is not a uuid", err)
	}
	if err := h.Svc.RemoveFromCart(ctx, userID, productID); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}

	l.Info("remove_from_cart_success", "product_id", productID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
