package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/search"
)

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTotalDesc = "total_desc"
	SortTotalAsc  = "total_asc"
)

func ValidOrderSort(s string) bool {
	switch s {
	case "", SortNewest, SortOldest, SortTotalDesc, SortTotalAsc:
		return true
	}
	return false
}

// ParseStatuses reads a comma separated status list. Blank input means all statuses.
func ParseStatuses(csv string) ([]models.OrderStatus, error) {
	var out []models.OrderStatus
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s := models.OrderStatus(part)
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		out = append(out, s)
	}
	return out, nil
}

// phoneQuery returns the digits of q when q looks like a phone number fragment.
func phoneQuery(q string) string {
	for _, r := range q {
		if !unicode.IsDigit(r) && !strings.ContainsRune(" ()-+.", r) {
			return ""
		}
	}
	return digits(q)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchOrder reports whether q matches the order id prefix, the customer
// name (accent insensitive) or the customer phone digits.
func MatchOrder(o models.Order, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	if strings.HasPrefix(o.ID.String(), strings.ToLower(q)) {
		return true
	}
	if strings.Contains(search.Fold(o.CustomerName), search.Fold(q)) {
		return true
	}
	if d := phoneQuery(q); d != "" && strings.Contains(digits(o.CustomerPhone), d) {
		return true
	}
	return false
}

func FilterOrders(orders []models.Order, q string) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if MatchOrder(o, q) {
			out = append(out, o)
		}
	}
	return out
}

// SortOrders sorts in place. Ties keep the newest first.
func SortOrders(orders []models.Order, by string) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		switch by {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortTotalDesc:
			if a.Total != b.Total {
				return a.Total > b.Total
			}
		case SortTotalAsc:
			if a.Total != b.Total {
				return a.Total < b.Total
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Page returns the slice window [offset, offset+limit).
func Page[T any](items []T, offset, limit int) []T {
	if offset < 0 || limit <= 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return items[offset:end]
}
