package report

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/search"
)

const (
	ClientSortSpent  = "spent"
	ClientSortOrders = "orders"
	ClientSortRecent = "recent"
	ClientSortName   = "name"
)

func ValidClientSort(s string) bool {
	switch s {
	case "", ClientSortSpent, ClientSortOrders, ClientSortRecent, ClientSortName:
		return true
	}
	return false
}

type ClientStats struct {
	UserID        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Orders        int        `json:"orders"`
	Cancelled     int        `json:"cancelled"`
	Spent         int64      `json:"spent"`
	AverageTicket int64      `json:"average_ticket"`
	LastOrderAt   *time.Time `json:"last_order_at,omitempty"`
	MemberSince   time.Time  `json:"member_since"`
}

// Clients joins users with their orders. Orders counts every order; Spent and
// AverageTicket ignore cancelled ones.
func Clients(users []models.User, orders []models.Order) []ClientStats {
	idx := make(map[uuid.UUID]int, len(users))
	out := make([]ClientStats, len(users))
	for i, u := range users {
		idx[u.ID] = i
		out[i] = ClientStats{UserID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, MemberSince: u.CreatedAt}
	}

	for _, o := range orders {
		i, ok := idx[o.UserID]
		if !ok {
			continue
		}
		c := &out[i]
		c.Orders++
		if c.LastOrderAt == nil || o.CreatedAt.After(*c.LastOrderAt) {
			at := o.CreatedAt
			c.LastOrderAt = &at
		}
		if !Billable(o) {
			c.Cancelled++
			continue
		}
		c.Spent += o.Total
	}

	for i := range out {
		if n := out[i].Orders - out[i].Cancelled; n > 0 {
			out[i].AverageTicket = out[i].Spent / int64(n)
		}
	}
	return out
}

func FilterClients(clients []ClientStats, q string) []ClientStats {
	q = strings.TrimSpace(q)
	if q == "" {
		return clients
	}
	fq := search.Fold(q)
	dq := phoneQuery(q)
	out := make([]ClientStats, 0, len(clients))
	for _, c := range clients {
		switch {
		case strings.Contains(search.Fold(c.Name), fq),
			strings.Contains(strings.ToLower(c.Email), strings.ToLower(q)),
			dq != "" && strings.Contains(digits(c.Phone), dq):
			out = append(out, c)
		}
	}
	return out
}

// SortClients sorts in place; the default is by amount spent.
func SortClients(clients []ClientStats, by string) {
	sort.SliceStable(clients, func(i, j int) bool {
		a, b := clients[i], clients[j]
		switch by {
		case ClientSortName:
			return search.Fold(a.Name) < search.Fold(b.Name)
		case ClientSortOrders:
			if a.Orders != b.Orders {
				return a.Orders > b.Orders
			}
		case ClientSortRecent:
			switch {
			case a.LastOrderAt == nil && b.LastOrderAt == nil:
			case a.LastOrderAt == nil:
				return false
			case b.LastOrderAt == nil:
				return true
			case !a.LastOrderAt.Equal(*b.LastOrderAt):
				return a.LastOrderAt.After(*b.LastOrderAt)
			}
		default:
			if a.Spent != b.Spent {
				return a.Spent > b.Spent
			}
		}
		return search.Fold(a.Name) < search.Fold(b.Name)
	})
}
