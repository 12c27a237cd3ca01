package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	BirthDate string `json:"birth_date"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User            *models.User `json:"user"`
	IsAdmin         bool         `json:"is_admin"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	BirthDate *string `json:"birth_date"`
}

type UnlockRequest struct {
	Password string `json:"password"`
}

type GateStatus struct {
	Open      bool       `json:"open"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type GrantAdminRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

type CreateProductRequest struct {
	GroupID     *uuid.UUID `json:"group_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	ImageURL    string     `json:"image_url"`
	Available   *bool      `json:"available"`
}

// UpdateProductRequest patches a product. An empty GroupID moves it out of its group.
type UpdateProductRequest struct {
	GroupID     *string `json:"group_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	ImageURL    *string `json:"image_url"`
	Available   *bool   `json:"available"`
}

type ProductPage struct {
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Items []models.Product `json:"items"`
}

// CatalogSection is one group of the storefront. Group is nil for ungrouped products.
type CatalogSection struct {
	Group    *models.ProductGroup `json:"group"`
	Products []models.Product     `json:"products"`
}

type CatalogResponse struct {
	Sections []CatalogSection `json:"sections"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint      `json:"quantity"`
}

// UpdateCartItemRequest.Quantity is required; zero removes the line.
type UpdateCartItemRequest struct {
	Quantity *uint `json:"quantity"`
}

type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  uint      `json:"quantity"`
	LineTotal int64     `json:"line_total"`
	Available bool      `json:"available"`
}

type CartView struct {
	Items     []CartLine `json:"items"`
	ItemCount uint       `json:"item_count"`
	Total     int64      `json:"total"`
}

type CartItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Deleted   bool      `json:"deleted"`
	Quantity  uint      `json:"quantity"`
}

type CreateOrderRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Notes           string `json:"notes"`
}

// UpdateStatusRequest moves an order to Status. When Expected is set the write
// only succeeds if the stored status still equals it.
type UpdateStatusRequest struct {
	Status   models.OrderStatus  `json:"status"`
	Expected *models.OrderStatus `json:"expected"`
}

type OrderPage struct {
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Items []models.Order `json:"items"`
}

type CreateCarouselRequest struct {
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	LinkURL  string `json:"link_url"`
	Active   *bool  `json:"active"`
}

type UpdateCarouselRequest struct {
	Title   *string `json:"title"`
	LinkURL *string `json:"link_url"`
	Active  *bool   `json:"active"`
}

type MoveCarouselRequest struct {
	To       int         `json:"to"`
	Expected []uuid.UUID `json:"expected"`
}

type ReorderCarouselRequest struct {
	IDs      []uuid.UUID `json:"ids"`
	Expected []uuid.UUID `json:"expected"`
}
