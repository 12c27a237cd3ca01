package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

// DeliveryStatuses are the statuses of orders waiting to reach the customer.
var DeliveryStatuses = []models.OrderStatus{models.StatusPaid, models.StatusShipped}

type Delivery struct {
	OrderID         uuid.UUID          `json:"order_id"`
	Status          models.OrderStatus `json:"status"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	DeliveryAddress string             `json:"delivery_address"`
	Notes           string             `json:"notes"`
	Total           int64              `json:"total"`
	ItemCount       uint               `json:"item_count"`
	Summary         string             `json:"summary"`
	CreatedAt       time.Time          `json:"created_at"`
	WaitingMinutes  int                `json:"waiting_minutes"`
}

func ItemSummary(items []models.OrderItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%dx %s", it.Quantity, it.Snapshot.Name)
	}
	return strings.Join(parts, ", ")
}

// Deliveries lists the orders in a delivery status, oldest first.
func Deliveries(orders []models.Order, now time.Time) []Delivery {
	out := make([]Delivery, 0, len(orders))
	for _, o := range orders {
		if o.Status != models.StatusPaid && o.Status != models.StatusShipped {
			continue
		}
		out = append(out, Delivery{
			OrderID:         o.ID,
			Status:          o.Status,
			CustomerName:    o.CustomerName,
			CustomerPhone:   o.CustomerPhone,
			DeliveryAddress: o.DeliveryAddress,
			Notes:           o.Notes,
			Total:           o.Total,
			ItemCount:       o.ItemCount,
			Summary:         ItemSummary(o.Items),
			CreatedAt:       o.CreatedAt,
			WaitingMinutes:  int(now.Sub(o.CreatedAt).Minutes()),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
