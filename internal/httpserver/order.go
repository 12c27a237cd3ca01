package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/live"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	authmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
	Hub *live.Hub
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	order, err := h.Svc.CreateOrder(ctx, userID, req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListOrders(ctx, userID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "id is not a uuid", err)
	}
	order, err := h.Svc.GetOrder(ctx, userID, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", "id is not a uuid", err)
	}
	order, err := h.Svc.CancelOrder(ctx, userID, id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, order)
}

// Live streams status changes of the caller's own orders.
func (h *OrderHTTP) Live(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	live.Serve(c.Response(), c.Request(), h.Hub, live.UserTopic(userID))
	return nil
}
