package service

import (
	"context"
	"time"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/report"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
)

const (
	dayLayout = "2006-01-02"

	maxDashboardMonths = 24
	maxTopProducts     = 50
)

// BackOffice computes the admin views by loading the rows and reducing them in memory.
type BackOffice struct {
	Repo *repo.GormRepo
	Now  func() time.Time
	Loc  *time.Location
}

type OrdersQuery struct {
	Statuses string
	Query    string
	From     string
	To       string
	Sort     string
	Offset   int
	Limit    int
}

type ClientsQuery struct {
	Query string
	Sort  string
}

func (b *BackOffice) now() time.Time {
	t := time.Now()
	if b.Now != nil {
		t = b.Now()
	}
	if b.Loc != nil {
		t = t.In(b.Loc)
	}
	return t
}

func (b *BackOffice) location() *time.Location {
	if b.Loc != nil {
		return b.Loc
	}
	return time.UTC
}

func (b *BackOffice) Dashboard(ctx context.Context, months, top int) (*report.Dashboard, error) {
	if months < 1 || months > maxDashboardMonths {
		return nil, validation("months must be between 1 and %d", maxDashboardMonths)
	}
	if top < 1 || top > maxTopProducts {
		return nil, validation("top must be between 1 and %d", maxTopProducts)
	}
	orders, err := b.Repo.ListOrders(ctx, repo.OrderQuery{WithItems: true})
	if err != nil {
		return nil, err
	}
	clients, err := b.Repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := b.Repo.CountProducts(ctx)
	if err != nil {
		return nil, err
	}

	d := report.Summarize(orders, b.now(), months, top)
	d.Clients = clients
	d.Products = products
	return &d, nil
}

func (b *BackOffice) parseDay(v string, field string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dayLayout, v, b.location())
	if err != nil {
		return nil, validation("%s must be YYYY-MM-DD", field)
	}
	return &d, nil
}

// Orders filters by status and inclusive day range in the database, then by
// free text in memory, sorts and pages.
func (b *BackOffice) Orders(ctx context.Context, q OrdersQuery) (*transport.OrderPage, error) {
	statuses, err := report.ParseStatuses(q.Statuses)
	if err != nil {
		return nil, validation("%s", err.Error())
	}
	if !report.ValidOrderSort(q.Sort) {
		return nil, validation("unknown sort %q", q.Sort)
	}
	from, err := b.parseDay(q.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := b.parseDay(q.To, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, validation("from must not be after to")
	}

	orders, err := b.Repo.ListOrders(ctx, repo.OrderQuery{Statuses: statuses, From: from, To: to, WithItems: true})
	if err != nil {
		return nil, err
	}
	orders = report.FilterOrders(orders, q.Query)
	report.SortOrders(orders, q.Sort)

	return &transport.OrderPage{
		Total: len(orders),
		Page:  q.Offset/max(q.Limit, 1) + 1,
		Limit: q.Limit,
		Items: report.Page(orders, q.Offset, q.Limit),
	}, nil
}

// Deliveries lists orders in Pago or Enviado. status narrows to one of them.
func (b *BackOffice) Deliveries(ctx context.Context, status string) ([]report.Delivery, error) {
	statuses := report.DeliveryStatuses
	if status != "" {
		s := models.OrderStatus(status)
		if s != models.StatusPaid && s != models.StatusShipped {
			return nil, validation("status must be %s or %s", models.StatusPaid, models.StatusShipped)
		}
		statuses = []models.OrderStatus{s}
	}
	orders, err := b.Repo.ListOrders(ctx, repo.OrderQuery{Statuses: statuses, WithItems: true})
	if err != nil {
		return nil, err
	}
	return report.Deliveries(orders, b.now()), nil
}

func (b *BackOffice) Clients(ctx context.Context, q ClientsQuery) ([]report.ClientStats, error) {
	if !report.ValidClientSort(q.Sort) {
		return nil, validation("unknown sort %q", q.Sort)
	}
	users, err := b.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := b.Repo.ListOrders(ctx, repo.OrderQuery{})
	if err != nil {
		return nil, err
	}
	stats := report.FilterClients(report.Clients(users, orders), q.Query)
	report.SortClients(stats, q.Sort)
	return stats, nil
}

// Birthdays lists the clients born in month; zero means the current month.
func (b *BackOffice) Birthdays(ctx context.Context, month int) ([]report.Birthday, error) {
	now := b.now()
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, validation("month must be between 1 and 12")
	}
	users, err := b.Repo.ListUsersWithBirthDate(ctx)
	if err != nil {
		return nil, err
	}
	return report.Birthdays(users, time.Month(month), now), nil
}
