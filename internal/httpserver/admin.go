package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/live"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/report"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/util"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	authmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/auth"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

// AdminHTTP serves the back-office: the gate, the aggregation views, order
// status changes and admin roles.
type AdminHTTP struct {
	Auth       *service.AuthService
	Gate       *service.AdminGate
	Orders     *service.OrderService
	BackOffice *service.BackOffice
	Hub        *live.Hub
	Secure     bool
}

func (h *AdminHTTP) Unlock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.unlock")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req transport.UnlockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "unlock_error", "invalid body", err)
	}

	token, exp, err := h.Gate.Unlock(ctx, userID, req.Password)
	if err != nil {
		return fail(l, "unlock_error", err)
	}
	c.SetCookie(tokens.CreateSessionCookie(tokens.GateCookie, token, "/", h.Secure))
	return c.JSON(http.StatusOK, transport.GateStatus{Open: true, ExpiresAt: &exp})
}

func (h *AdminHTTP) Lock(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie(tokens.GateCookie, "/", h.Secure))
	return c.JSON(http.StatusOK, transport.GateStatus{Open: false})
}

func (h *AdminHTTP) GateStatus(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	cookie, err := c.Cookie(tokens.GateCookie)
	if err != nil {
		return c.JSON(http.StatusOK, transport.GateStatus{Open: false})
	}
	exp, err := h.Gate.Verify(cookie.Value, userID)
	if err != nil {
		return c.JSON(http.StatusOK, transport.GateStatus{Open: false})
	}
	return c.JSON(http.StatusOK, transport.GateStatus{Open: true, ExpiresAt: &exp})
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	months := util.ParseIntDefault(c.QueryParam("months"), report.DefaultMonths)
	top := util.ParseIntDefault(c.QueryParam("top"), report.DefaultTop)
	d, err := h.BackOffice.Dashboard(ctx, months, top)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	res, err := h.BackOffice.Orders(ctx, service.OrdersQuery{
		Statuses: c.QueryParam("status"),
		Query:    c.QueryParam("q"),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Sort:     c.QueryParam("sort"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "id is not a uuid", err)
	}
	order, err := h.Orders.GetAnyOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_status_error", "id is not a uuid", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status_error", "invalid body", err)
	}

	order, err := h.Orders.UpdateStatus(ctx, id, req)
	if err != nil {
		return fail(l, "update_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

// OrdersLive streams new orders and every status change.
func (h *AdminHTTP) OrdersLive(c echo.Context) error {
	live.Serve(c.Response(), c.Request(), h.Hub, live.AdminTopic)
	return nil
}

func (h *AdminHTTP) Deliveries(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.deliveries")

	items, err := h.BackOffice.Deliveries(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "deliveries_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) Clients(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.clients")

	items, err := h.BackOffice.Clients(ctx, service.ClientsQuery{
		Query: c.QueryParam("q"),
		Sort:  c.QueryParam("sort"),
	})
	if err != nil {
		return fail(l, "clients_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) Birthdays(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.birthdays")

	month := util.ParseIntDefault(c.QueryParam("month"), 0)
	items, err := h.BackOffice.Birthdays(ctx, month)
	if err != nil {
		return fail(l, "birthdays_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) ListAdmins(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_admins")

	rows, err := h.Auth.ListAdmins(ctx)
	if err != nil {
		return fail(l, "list_admins_error", err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *AdminHTTP) GrantAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.grant")

	actor, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req transport.GrantAdminRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "grant_admin_error", "invalid body", err)
	}
	if err := h.Auth.GrantAdmin(ctx, req.UserID, actor); err != nil {
		return fail(l, "grant_admin_error", err)
	}

	l.Info("grant_admin_success", "user_id", req.UserID, "granted_by", actor)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) RevokeAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.revoke")

	actor, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return badRequest(l, "revoke_admin_error", "user_id is not a uuid", err)
	}
	if err := h.Auth.RevokeAdmin(ctx, userID, actor); err != nil {
		return fail(l, "revoke_admin_error", err)
	}

	l.Info("revoke_admin_success", "user_id", userID, "revoked_by", actor)
	return c.NoContent(http.StatusNoContent)
}
