package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

const (
	DefaultMonths = 6
	DefaultTop    = 5

	monthLayout = "2006-01"
)

type MonthBucket struct {
	Month   string `json:"month"`
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}

type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  uint      `json:"quantity"`
	Revenue   int64     `json:"revenue"`
}

type Dashboard struct {
	TotalOrders   int                        `json:"total_orders"`
	Revenue       int64                      `json:"revenue"`
	AverageTicket int64                      `json:"average_ticket"`
	ByStatus      map[models.OrderStatus]int `json:"by_status"`
	Pending       int                        `json:"pending"`
	Clients       int64                      `json:"clients"`
	Products      int64                      `json:"products"`
	Monthly       []MonthBucket              `json:"monthly"`
	TopProducts   []TopProduct               `json:"top_products"`
}

// Billable reports whether the order counts towards revenue.
func Billable(o models.Order) bool {
	return o.Status != models.StatusCancelled
}

// Summarize reduces orders into the dashboard figures. Monthly holds the last
// months calendar months up to now, oldest first, with empty months present.
// Orders must carry their items for TopProducts to be filled.
func Summarize(orders []models.Order, now time.Time, months, top int) Dashboard {
	if months <= 0 {
		months = DefaultMonths
	}
	if top <= 0 {
		top = DefaultTop
	}

	d := Dashboard{
		TotalOrders: len(orders),
		ByStatus:    make(map[models.OrderStatus]int, len(models.OrderStatuses)),
		Monthly:     monthBuckets(now, months),
	}
	for _, s := range models.OrderStatuses {
		d.ByStatus[s] = 0
	}

	bucketIdx := make(map[string]int, months)
	for i, b := range d.Monthly {
		bucketIdx[b.Month] = i
	}

	billable := 0
	for _, o := range orders {
		d.ByStatus[o.Status]++
		if !Billable(o) {
			continue
		}
		billable++
		d.Revenue += o.Total
		if i, ok := bucketIdx[o.CreatedAt.In(now.Location()).Format(monthLayout)]; ok {
			d.Monthly[i].Orders++
			d.Monthly[i].Revenue += o.Total
		}
	}
	d.Pending = d.ByStatus[models.StatusPending]
	if billable > 0 {
		d.AverageTicket = d.Revenue / int64(billable)
	}
	d.TopProducts = topProducts(orders, top)
	return d
}

func monthBuckets(now time.Time, months int) []MonthBucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]MonthBucket, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i-(months-1), 0)
		out[i] = MonthBucket{Month: m.Format(monthLayout)}
	}
	return out
}

func topProducts(orders []models.Order, top int) []TopProduct {
	byID := make(map[uuid.UUID]*TopProduct)
	for _, o := range orders {
		if !Billable(o) {
			continue
		}
		for _, it := range o.Items {
			tp, ok := byID[it.ProductID]
			if !ok {
				tp = &TopProduct{ProductID: it.ProductID, Name: it.Snapshot.Name}
				byID[it.ProductID] = tp
			}
			tp.Quantity += it.Quantity
			tp.Revenue += it.LineTotal
		}
	}

	out := make([]TopProduct, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}
