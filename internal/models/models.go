package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pendente"
	StatusPaid      OrderStatus = "Pago"
	StatusShipped   OrderStatus = "Enviado"
	StatusDelivered OrderStatus = "Entregue"
	StatusCancelled OrderStatus = "Cancelado"
)

var OrderStatuses = []OrderStatus{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusShipped, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped: {StatusDelivered, StatusCancelled},
}

// CanBecome reports whether an order in status s may move to next.
// Entregue and Cancelado are terminal.
func (s OrderStatus) CanBecome(next OrderStatus) bool {
	for _, v := range statusTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"   json:"id"`
	Name         string     `gorm:"not null"               json:"name"`
	Email        string     `gorm:"uniqueIndex;not null"   json:"email"`
	Phone        string     `                              json:"phone"`
	Address      string     `                              json:"address"`
	BirthDate    *time.Time `                              json:"birth_date,omitempty"`
	PasswordHash string     `gorm:"not null"               json:"-"`
	CreatedAt    time.Time  `                              json:"created_at"`
	UpdatedAt    time.Time  `                              json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AdminRole is a marker row: its presence grants back-office access to UserID.
type AdminRole struct {
	UserID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	GrantedBy *uuid.UUID `gorm:"type:uuid"            json:"granted_by,omitempty"`
	CreatedAt time.Time  `                            json:"created_at"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"    json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"        json:"jti"`
	TokenHash string    `gorm:"uniqueIndex;not null"        json:"-"`
	ExpiresAt time.Time `gorm:"not null"                    json:"expires_at"`
	Revoked   bool      `gorm:"default:false;not null"      json:"revoked"`
	CreatedAt time.Time `                                   json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type ProductGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Name        string    `gorm:"uniqueIndex;not null"  json:"name"`
	Description string    `                             json:"description"`
	Position    int       `gorm:"not null;default:0"    json:"position"`
	CreatedAt   time.Time `                             json:"created_at"`
	UpdatedAt   time.Time `                             json:"updated_at"`
}

func (g *ProductGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"          json:"id"`
	GroupID     *uuid.UUID `gorm:"type:uuid;index"               json:"group_id,omitempty"`
	Name        string     `gorm:"not null"                      json:"name"`
	Description string     `gorm:"not null;default:''"           json:"description"`
	Price       int64      `gorm:"not null;check:price >= 0"     json:"price"`
	ImageURL    string     `                                     json:"image_url"`
	ObjectKey   string     `                                     json:"object_key,omitempty"`
	Available   bool       `gorm:"not null"                      json:"available"`
	CreatedAt   time.Time  `                                     json:"created_at"`
	UpdatedAt   time.Time  `                                     json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"   json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"   json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity > 0"             json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID"                              json:"product,omitempty"`
	CreatedAt time.Time `                                                         json:"created_at"`
	UpdatedAt time.Time `                                                         json:"updated_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// ProductSnapshot freezes what the customer saw when the order was placed.
type ProductSnapshot struct {
	Name        string `gorm:"column:product_name;not null"  json:"name"`
	Description string `gorm:"column:product_description"    json:"description"`
	ImageURL    string `gorm:"column:product_image_url"      json:"image_url"`
	GroupName   string `gorm:"column:product_group_name"     json:"group_name"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"            json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"            json:"product_id"`
	Quantity  uint            `gorm:"not null;check:quantity > 0"         json:"quantity"`
	UnitPrice int64           `gorm:"not null"                            json:"unit_price"`
	LineTotal int64           `gorm:"not null"                            json:"line_total"`
	Snapshot  ProductSnapshot `gorm:"embedded"                            json:"product"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID          uuid.UUID   `gorm:"type:uuid;index;not null"      json:"user_id"`
	CustomerName    string      `gorm:"not null"                      json:"customer_name"`
	CustomerPhone   string      `                                     json:"customer_phone"`
	DeliveryAddress string      `gorm:"not null"                      json:"delivery_address"`
	Notes           string      `                                     json:"notes"`
	Status          OrderStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Total           int64       `gorm:"not null"                      json:"total"`
	ItemCount       uint        `gorm:"not null"                      json:"item_count"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"            json:"items,omitempty"`
	CreatedAt       time.Time   `gorm:"index"                         json:"created_at"`
	UpdatedAt       time.Time   `                                     json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type CarouselImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	ImageURL  string    `gorm:"not null"                 json:"image_url"`
	ObjectKey string    `                                json:"object_key,omitempty"`
	Title     string    `                                json:"title"`
	LinkURL   string    `                                json:"link_url"`
	Position  int       `gorm:"not null;index"           json:"position"`
	Active    bool      `gorm:"not null"                 json:"active"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

func (c *CarouselImage) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &AdminRole{}, &RefreshToken{},
		&ProductGroup{}, &Product{},
		&CartItem{}, &Order{}, &OrderItem{},
		&CarouselImage{},
	}
}
