package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	OrderHandler    *OrderHTTP
	AdminHandler    *AdminHTTP
	CarouselHandler *CarouselHTTP

	JWTSecret    []byte
	CookieSecure bool
	Ready        func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	liveness := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	readiness := func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	}
	e.GET("/health/live", liveness)
	e.GET("/health/ready", readiness)

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthHandler.Refresher(), d.CookieSecure)
	gate := authMW.RequireGate(d.AdminHandler.Gate)

	v1 := e.Group("/api/v1")
	v1.GET("/health/live", liveness)
	v1.GET("/health/ready", readiness)

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)

	catalog := v1.Group("/catalog")
	catalog.GET("", d.CatalogHandler.Catalog)
	catalog.GET("/groups", d.CatalogHandler.ListGroups)
	catalog.GET("/products", d.CatalogHandler.GetProducts)
	catalog.GET("/products/:id", d.CatalogHandler.GetProduct)
	catalog.GET("/search", d.CatalogHandler.Search)

	v1.GET("/carousel", d.CarouselHandler.List)

	me := v1.Group("/me", authMW.RequireAuth)
	me.GET("", d.AuthHandler.Me)
	me.PATCH("", d.AuthHandler.UpdateMe)

	cart := v1.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.PATCH("/items/:product_id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:product_id", d.CartHandler.RemoveItem)

	orders := v1.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/live", d.OrderHandler.Live)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	adminGate := v1.Group("/admin", authMW.RequireAdmin)
	adminGate.POST("/unlock", d.AdminHandler.Unlock)
	adminGate.POST("/lock", d.AdminHandler.Lock)
	adminGate.GET("/gate", d.AdminHandler.GateStatus)

	admin := v1.Group("/admin", authMW.RequireAdmin, gate)
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/orders/live", d.AdminHandler.OrdersLive)
	admin.GET("/orders/:id", d.AdminHandler.GetOrder)
	admin.PATCH("/orders/:id/status", d.AdminHandler.UpdateStatus)
	admin.GET("/deliveries", d.AdminHandler.Deliveries)
	admin.GET("/clients", d.AdminHandler.Clients)
	admin.GET("/birthdays", d.AdminHandler.Birthdays)

	admin.GET("/groups", d.CatalogHandler.ListGroups)
	admin.POST("/groups", d.CatalogHandler.CreateGroup)
	admin.PATCH("/groups/:id", d.CatalogHandler.UpdateGroup)
	admin.DELETE("/groups/:id", d.CatalogHandler.DeleteGroup)

	admin.GET("/products", d.CatalogHandler.AdminProducts)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/products/:id/image", d.CatalogHandler.UploadProductImage)

	admin.GET("/carousel", d.CarouselHandler.ListAll)
	admin.POST("/carousel", d.CarouselHandler.Create)
	admin.POST("/carousel/upload", d.CarouselHandler.Upload)
	admin.PUT("/carousel/order", d.CarouselHandler.Reorder)
	admin.PATCH("/carousel/:id", d.CarouselHandler.Update)
	admin.DELETE("/carousel/:id", d.CarouselHandler.Delete)
	admin.POST("/carousel/:id/move", d.CarouselHandler.Move)

	admin.GET("/roles", d.AdminHandler.ListAdmins)
	admin.POST("/roles", d.AdminHandler.GrantAdmin)
	admin.DELETE("/roles/:user_id", d.AdminHandler.RevokeAdmin)
}
