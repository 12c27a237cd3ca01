package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/live"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

const maxNotesLen = 500

// Notifier pushes realtime messages to websocket subscribers of a topic.
type Notifier interface {
	Publish(ctx context.Context, topic string, msg any)
}

// OrderUpdate is the realtime message sent for new orders and status changes.
type OrderUpdate struct {
	Type  string             `json:"type"`
	From  models.OrderStatus `json:"from,omitempty"`
	Order *models.Order      `json:"order"`
}

type OrderService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Notifier Notifier
}

// CreateOrder turns the user's cart into a Pendente order. Product data is
// copied into the items so later catalog edits do not rewrite history. The
// cart is emptied in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", userID)

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}

	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		address = user.Address
	}
	if address == "" {
		return nil, validation("delivery address required")
	}
	notes := strings.TrimSpace(req.Notes)
	if len(notes) > maxNotesLen {
		return nil, validation("notes cannot exceed %d characters", maxNotesLen)
	}

	var order *models.Order
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.GetCartForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return validation("cart is empty")
		}

		ids := make([]uuid.UUID, len(cart))
		for i, it := range cart {
			ids[i] = it.ProductID
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		groups, err := tx.ListGroups(ctx)
		if err != nil {
			return err
		}
		groupNames := make(map[uuid.UUID]string, len(groups))
		for _, g := range groups {
			groupNames[g.ID] = g.Name
		}

		order = &models.Order{
			UserID:          userID,
			CustomerName:    user.Name,
			CustomerPhone:   user.Phone,
			DeliveryAddress: address,
			Notes:           notes,
			Status:          models.StatusPending,
			Items:           make([]models.OrderItem, 0, len(cart)),
		}
		for _, it := range cart {
			p, ok := byID[it.ProductID]
			if !ok {
				return validation("product %s no longer exists", it.ProductID)
			}
			if !p.Available {
				return validation("product %q is unavailable", p.Name)
			}
			snap := models.ProductSnapshot{Name: p.Name, Description: p.Description, ImageURL: p.ImageURL}
			if p.GroupID != nil {
				snap.GroupName = groupNames[*p.GroupID]
			}
			line := p.Price * int64(it.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
				LineTotal: line,
				Snapshot:  snap,
			})
			order.Total += line
			order.ItemCount += it.Quantity
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		_, err = tx.ClearCart(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			l.Warn("create_order_rejected", "status", 400, "reason", err.Error())
			return nil, err
		}
		return nil, translate(err, "create order")
	}

	l.Info("order_created", "order_id", order.ID, "total", order.Total, "items", order.ItemCount)
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), "order_created", map[string]any{
		"order_id": order.ID.String(),
		"user_id":  userID.String(),
		"total":    order.Total,
		"items":    order.ItemCount,
	})
	s.notify(ctx, OrderUpdate{Type: "order_created", Order: order}, live.AdminTopic)
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, repo.OrderQuery{UserID: &userID, WithItems: true})
}

// GetOrder returns the order only to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, nil
}

// GetAnyOrder is the back-office lookup, without the ownership check.
func (s *OrderService) GetAnyOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	return order, translate(err, "order")
}

// CancelOrder lets a customer withdraw an order that nobody has handled yet.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, &ConflictError{Reason: fmt.Sprintf("order is %s", order.Status), Current: order}
	}
	return s.transition(ctx, order, models.StatusPending, models.StatusCancelled)
}

// UpdateStatus is the back-office status change. With req.Expected set the
// write is rejected when another admin changed the order first.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req transport.UpdateStatusRequest) (*models.Order, error) {
	if !req.Status.Valid() {
		return nil, validation("unknown status %q", req.Status)
	}
	if req.Expected != nil && !req.Expected.Valid() {
		return nil, validation("unknown expected status %q", *req.Expected)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}

	from := order.Status
	if req.Expected != nil {
		if *req.Expected != order.Status {
			return nil, &ConflictError{Reason: fmt.Sprintf("order is %s, not %s", order.Status, *req.Expected), Current: order}
		}
		from = *req.Expected
	}
	if from == req.Status {
		return order, nil
	}
	if !from.CanBecome(req.Status) {
		return nil, validation("cannot move order from %s to %s", from, req.Status)
	}
	return s.transition(ctx, order, from, req.Status)
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, from, to models.OrderStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.transition", "order_id", order.ID)

	ok, err := s.Repo.CompareAndSetStatus(ctx, order.ID, from, to)
	if err != nil {
		return nil, err
	}
	current, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if !ok {
		l.Warn("status_change_conflict", "status", 409, "from", from, "to", to, "current", current.Status)
		return nil, &ConflictError{Reason: fmt.Sprintf("order is %s, not %s", current.Status, from), Current: current}
	}

	l.Info("order_status_changed", "from", from, "to", to)
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), "order_status_changed", map[string]any{
		"order_id": order.ID.String(),
		"user_id":  current.UserID.String(),
		"from":     string(from),
		"to":       string(to),
	})
	s.notify(ctx, OrderUpdate{Type: "order_status_changed", From: from, Order: current},
		live.AdminTopic, live.UserTopic(current.UserID))
	return current, nil
}

func (s *OrderService) notify(ctx context.Context, msg OrderUpdate, topics ...string) {
	if s.Notifier == nil {
		return
	}
	for _, t := range topics {
		s.Notifier.Publish(ctx, t, msg)
	}
}
