package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/live"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/testutil"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/cache"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/objectstore"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

const gatePassword = "portao-secreto"

type testServer struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	hub    *live.Hub
	store  *objectstore.Memory
	events *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	r := &repo.GormRepo{DB: testutil.NewDB(t)}
	hub := live.NewHub()
	store := objectstore.NewMemory("http://cdn.test")
	rec := &events.Recorder{}
	jwtSecret := []byte("access-secret")

	gate, err := service.NewAdminGate("", gatePassword, []byte("gate-secret"), time.Hour)
	require.NoError(t, err)

	authSvc := &service.AuthService{Repo: r, JWTSecret: jwtSecret, RefreshSecret: []byte("refresh-secret")}
	orderSvc := &service.OrderService{Repo: r, Events: rec, Notifier: hub}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Cache: cache.NewMemory(), CacheTTL: time.Minute, Events: rec, Store: store}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r, Events: rec}},
		OrderHandler:   &OrderHTTP{Svc: orderSvc, Hub: hub},
		AdminHandler: &AdminHTTP{
			Auth:       authSvc,
			Gate:       gate,
			Orders:     orderSvc,
			BackOffice: &service.BackOffice{Repo: r},
			Hub:        hub,
		},
		CarouselHandler: &CarouselHTTP{Svc: &service.CarouselService{Repo: r, Cache: cache.NewMemory(), CacheTTL: time.Minute, Events: rec, Store: store}},
		JWTSecret:       jwtSecret,
		Ready:           r.Ping,
	})
	return &testServer{e: e, repo: r, hub: hub, store: store, events: rec}
}

// client keeps the cookies the server sets, like a browser would.
type client struct {
	s       *testServer
	cookies map[string]*http.Cookie
}

func (s *testServer) client() *client {
	return &client{s: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) send(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.s.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return c.send(t, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(t *testing.T, name, email string) (*client, uuid.UUID) {
	t.Helper()
	c := s.client()
	rec := c.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": "senha123",
		"phone":    "(11) 98888-7777",
		"address":  "Rua das Flores, 10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		User models.User `json:"user"`
	}](t, rec)
	return c, resp.User.ID
}

// admin registers a user, grants the role and logs in again so the access
// token carries it.
func (s *testServer) admin(t *testing.T) (*client, uuid.UUID) {
	t.Helper()
	c, id := s.register(t, "Dona Admin", "admin@example.com")
	require.NoError(t, s.repo.GrantAdmin(context.Background(), &models.AdminRole{UserID: id}))
	rec := c.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "admin@example.com", "password": "senha123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return c, id
}

func (s *testServer) unlockedAdmin(t *testing.T) (*client, uuid.UUID) {
	t.Helper()
	c, id := s.admin(t)
	rec := c.do(t, http.MethodPost, "/api/v1/admin/unlock", map[string]string{"password": gatePassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return c, id
}

func (s *testServer) product(t *testing.T, name string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Available: true}
	require.NoError(t, s.repo.CreateProduct(context.Background(), p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	c := s.client()

	assert.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/health/ready", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/v1/health/ready", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	c, id := s.register(t, "Maria", "Maria@Example.com")

	assert.Contains(t, c.cookies, tokens.AccessCookie)
	assert.Contains(t, c.cookies, tokens.RefreshCookie)

	rec := c.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User    models.User `json:"user"`
		IsAdmin bool        `json:"is_admin"`
	}](t, rec)
	assert.Equal(t, id, me.User.ID)
	assert.Equal(t, "maria@example.com", me.User.Email)
	assert.False(t, me.IsAdmin)

	rec = c.do(t, http.MethodPatch, "/api/v1/me", map[string]string{"address": "Av. Brasil, 500"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Av. Brasil, 500", decode[models.User](t, rec).Address)

	rec = s.client().do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Outra", "email": "maria@example.com", "password": "senha123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	oldRefresh := c.cookies[tokens.RefreshCookie].Value
	rec = c.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, oldRefresh, c.cookies[tokens.RefreshCookie].Value)

	rec = c.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, c.cookies)
	assert.Equal(t, http.StatusUnauthorized, c.do(t, http.MethodGet, "/api/v1/me", nil).Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "João", "joao@example.com")

	rec := s.client().do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "joao@example.com", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartToOrder(t *testing.T) {
	s := newTestServer(t)
	c, userID := s.register(t, "Ana", "ana@example.com")
	acai := s.product(t, "Açaí 500ml", 1500)

	admin, _ := s.unlockedAdmin(t)
	sub := s.hub.Subscribe(live.AdminTopic)
	defer sub.Close()

	rec := c.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": acai.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": acai.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	itemPath := "/api/v1/cart/items/" + acai.ID.String()
	assert.Equal(t, http.StatusBadRequest, c.do(t, http.MethodPatch, itemPath, map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(t, http.MethodPatch, itemPath, map[string]any{"qty": 5}).Code)
	rec = c.do(t, http.MethodPatch, itemPath, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[transport.CartItemResponse](t, rec).Deleted)

	rec = c.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[struct {
		ItemCount uint  `json:"item_count"`
		Total     int64 `json:"total"`
	}](t, rec)
	assert.Equal(t, uint(2), cart.ItemCount)
	assert.Equal(t, int64(3000), cart.Total)

	rec = c.do(t, http.MethodPost, "/api/v1/orders", map[string]string{"notes": "sem granola"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, int64(3000), order.Total)
	assert.Equal(t, "Rua das Flores, 10", order.DeliveryAddress)
	assert.Equal(t, userID, order.UserID)

	select {
	case msg := <-sub.C:
		assert.Contains(t, string(msg), "order_created")
	case <-time.After(time.Second):
		t.Fatal("admin feed got nothing")
	}

	rec = c.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, uint(0), decode[struct {
		ItemCount uint `json:"item_count"`
	}](t, rec).ItemCount)

	rec = c.do(t, http.MethodPost, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other, _ := s.register(t, "Bia", "bia@example.com")
	rec = other.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = admin.do(t, http.MethodPatch, "/api/v1/admin/orders/"+order.ID.String()+"/status",
		map[string]string{"status": "Pago", "expected": "Pendente"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusPaid, decode[models.Order](t, rec).Status)

	rec = c.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStaleStatusUpdateReturnsCurrentOrder(t *testing.T) {
	s := newTestServer(t)
	c, _ := s.register(t, "Ana", "ana@example.com")
	p := s.product(t, "Cupuaçu", 900)
	admin, _ := s.unlockedAdmin(t)

	require.Equal(t, http.StatusOK, c.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID, "quantity": 1}).Code)
	order := decode[models.Order](t, c.do(t, http.MethodPost, "/api/v1/orders", nil))

	rec := admin.do(t, http.MethodPatch, "/api/v1/admin/orders/"+order.ID.String()+"/status",
		map[string]string{"status": "Entregue", "expected": "Enviado"})
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode[struct {
		Message string       `json:"message"`
		Current models.Order `json:"current"`
	}](t, rec)
	assert.Equal(t, order.ID, body.Current.ID)
	assert.Equal(t, models.StatusPending, body.Current.Status)

	rec = admin.do(t, http.MethodPatch, "/api/v1/admin/orders/"+order.ID.String()+"/status",
		map[string]string{"status": "Desconhecido"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAccess(t *testing.T) {
	s := newTestServer(t)
	customer, _ := s.register(t, "Cliente", "cliente@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.client().do(t, http.MethodGet, "/api/v1/admin/dashboard", nil).Code)
	assert.Equal(t, http.StatusForbidden, customer.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil).Code)
	assert.Equal(t, http.StatusForbidden, customer.do(t, http.MethodPost, "/api/v1/admin/unlock", map[string]string{"password": gatePassword}).Code)

	admin, _ := s.admin(t)
	assert.Equal(t, http.StatusForbidden, admin.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil).Code)

	rec := admin.do(t, http.MethodGet, "/api/v1/admin/gate", nil)
	assert.False(t, decode[struct {
		Open bool `json:"open"`
	}](t, rec).Open)

	assert.Equal(t, http.StatusUnauthorized, admin.do(t, http.MethodPost, "/api/v1/admin/unlock", map[string]string{"password": "errada"}).Code)
	assert.Equal(t, http.StatusOK, admin.do(t, http.MethodPost, "/api/v1/admin/unlock", map[string]string{"password": gatePassword}).Code)

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/gate", nil)
	assert.True(t, decode[struct {
		Open bool `json:"open"`
	}](t, rec).Open)

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, dash["clients"])

	// A gate cookie is bound to the admin who unlocked it.
	other, otherID := s.register(t, "Outro Admin", "outro@example.com")
	require.NoError(t, s.repo.GrantAdmin(context.Background(), &models.AdminRole{UserID: otherID}))
	other.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "outro@example.com", "password": "senha123"})
	other.cookies[tokens.GateCookie] = admin.cookies[tokens.GateCookie]
	assert.Equal(t, http.StatusForbidden, other.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil).Code)

	assert.Equal(t, http.StatusOK, admin.do(t, http.MethodPost, "/api/v1/admin/lock", nil).Code)
	assert.Equal(t, http.StatusForbidden, admin.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil).Code)
}

func TestAdminViews(t *testing.T) {
	s := newTestServer(t)
	c, _ := s.register(t, "Ana", "ana@example.com")
	p := s.product(t, "Açaí", 1000)
	admin, _ := s.unlockedAdmin(t)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, c.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID, "quantity": 1}).Code)
		require.Equal(t, http.StatusCreated, c.do(t, http.MethodPost, "/api/v1/orders", nil).Code)
	}

	rec := admin.do(t, http.MethodGet, "/api/v1/admin/orders?status=Pendente&q=ana&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[struct {
		Total int            `json:"total"`
		Items []models.Order `json:"items"`
	}](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/orders?page=922337203685477581", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	far := decode[struct {
		Total int            `json:"total"`
		Page  int            `json:"page"`
		Items []models.Order `json:"items"`
	}](t, rec)
	assert.Equal(t, 3, far.Total)
	assert.Positive(t, far.Page)
	assert.Empty(t, far.Items)

	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodGet, "/api/v1/admin/orders?sort=bogus", nil).Code)
	assert.Equal(t, http.StatusOK, admin.do(t, http.MethodGet, "/api/v1/admin/dashboard?months=12&top=3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodGet, "/api/v1/admin/dashboard?months=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodGet, "/api/v1/admin/orders?from=ontem", nil).Code)

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/clients?sort=spent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode[[]map[string]any](t, rec)
	require.NotEmpty(t, clients)
	assert.Equal(t, "Ana", clients[0]["name"])

	assert.Equal(t, http.StatusOK, admin.do(t, http.MethodGet, "/api/v1/admin/deliveries", nil).Code)
	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodGet, "/api/v1/admin/deliveries?status=Entregue", nil).Code)
	assert.Equal(t, http.StatusOK, admin.do(t, http.MethodGet, "/api/v1/admin/birthdays?month=3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodGet, "/api/v1/admin/birthdays?month=13", nil).Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.unlockedAdmin(t)
	public := s.client()

	rec := admin.do(t, http.MethodPost, "/api/v1/admin/groups", map[string]any{"name": "Sorvetes", "position": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	group := decode[models.ProductGroup](t, rec)

	rec = admin.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"group_id": group.ID, "name": "Picolé de Limão", "description": "refrescante", "price": 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[models.Product](t, rec)
	assert.True(t, product.Available)

	rec = admin.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "Caro", "price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = public.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Picolé de Limão")

	rec = public.do(t, http.MethodGet, "/api/v1/catalog/search?q=LIMAO", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[struct {
		Items []models.Product `json:"items"`
	}](t, rec)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.ID, found.Items[0].ID)

	rec = admin.do(t, http.MethodPatch, "/api/v1/admin/products/"+product.ID.String(), map[string]any{"available": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = public.do(t, http.MethodGet, "/api/v1/catalog/products?group_id="+group.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["total"])

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/products?available=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])

	assert.Equal(t, http.StatusNotFound, public.do(t, http.MethodGet, "/api/v1/catalog/products/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, public.do(t, http.MethodGet, "/api/v1/catalog/products/abc", nil).Code)

	assert.Equal(t, http.StatusNoContent, admin.do(t, http.MethodDelete, "/api/v1/admin/products/"+product.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, admin.do(t, http.MethodDelete, "/api/v1/admin/products/"+product.ID.String(), nil).Code)
}

func multipartImage(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="banner.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestCarouselEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.unlockedAdmin(t)

	var ids []uuid.UUID
	for _, title := range []string{"A", "B", "C"} {
		rec := admin.do(t, http.MethodPost, "/api/v1/admin/carousel", map[string]string{
			"image_url": "https://img.test/" + title + ".jpg", "title": title,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[models.CarouselImage](t, rec).ID)
	}

	rec := admin.send(t, multipartImage(t, "/api/v1/admin/carousel/upload", map[string]string{"title": "D", "link_url": "/promo"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	uploaded := decode[models.CarouselImage](t, rec)
	assert.True(t, s.store.Has(uploaded.ObjectKey))
	assert.Equal(t, 3, uploaded.Position)
	ids = append(ids, uploaded.ID)

	rec = admin.do(t, http.MethodPost, "/api/v1/admin/carousel/"+ids[3].String()+"/move", map[string]any{"to": 0, "expected": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[[]models.CarouselImage](t, rec)
	require.Len(t, moved, 4)
	assert.Equal(t, []string{"D", "A", "B", "C"}, []string{moved[0].Title, moved[1].Title, moved[2].Title, moved[3].Title})

	// The client still believes the old order.
	rec = admin.do(t, http.MethodPut, "/api/v1/admin/carousel/order", map[string]any{
		"ids": []uuid.UUID{ids[2], ids[1], ids[0], ids[3]}, "expected": ids,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[struct {
		Current []models.CarouselImage `json:"current"`
	}](t, rec)
	require.Len(t, conflict.Current, 4)
	assert.Equal(t, "D", conflict.Current[0].Title)

	rec = admin.do(t, http.MethodPut, "/api/v1/admin/carousel/order", map[string]any{"ids": ids[:2]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = admin.do(t, http.MethodPatch, "/api/v1/admin/carousel/"+ids[0].String(), map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.client().do(t, http.MethodGet, "/api/v1/carousel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.CarouselImage](t, rec), 3)

	assert.Equal(t, http.StatusNoContent, admin.do(t, http.MethodDelete, "/api/v1/admin/carousel/"+uploaded.ID.String(), nil).Code)
	assert.False(t, s.store.Has(uploaded.ObjectKey))

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/carousel", nil)
	all := decode[[]models.CarouselImage](t, rec)
	require.Len(t, all, 3)
	for i, img := range all {
		assert.Equal(t, i, img.Position)
	}
}

func TestRoles(t *testing.T) {
	s := newTestServer(t)
	admin, adminID := s.unlockedAdmin(t)
	_, userID := s.register(t, "Futuro Admin", "futuro@example.com")

	rec := admin.do(t, http.MethodPost, "/api/v1/admin/roles", map[string]any{"user_id": userID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = admin.do(t, http.MethodGet, "/api/v1/admin/roles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]repo.AdminRow](t, rec), 2)

	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodDelete, "/api/v1/admin/roles/"+adminID.String(), nil).Code)
	assert.Equal(t, http.StatusNoContent, admin.do(t, http.MethodDelete, "/api/v1/admin/roles/"+userID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, admin.do(t, http.MethodDelete, "/api/v1/admin/roles/"+userID.String(), nil).Code)
}
