package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
)

const maxLineQuantity = 99

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// CartView prices the stored cart rows. Products that vanished are skipped.
func CartView(items []models.CartItem) transport.CartView {
	view := transport.CartView{Items: make([]transport.CartLine, 0, len(items))}
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		line := transport.CartLine{
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			ImageURL:  it.Product.ImageURL,
			UnitPrice: it.Product.Price,
			Quantity:  it.Quantity,
			LineTotal: it.Product.Price * int64(it.Quantity),
			Available: it.Product.Available,
		}
		view.Items = append(view.Items, line)
		view.ItemCount += it.Quantity
		view.Total += line.LineTotal
	}
	return view
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (transport.CartView, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return transport.CartView{}, err
	}
	return CartView(items), nil
}

func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, req transport.AddToCartRequest) (*models.CartItem, error) {
	if req.ProductID == uuid.Nil {
		return nil, validation("product_id required")
	}
	if req.Quantity == 0 {
		return nil, validation("quantity must be more than zero")
	}
	if req.Quantity > maxLineQuantity {
		return nil, validation("quantity cannot exceed %d", maxLineQuantity)
	}

	product, err := s.Repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, translate(err, "product")
	}
	if !product.Available {
		return nil, validation("product %q is unavailable", product.Name)
	}

	item := &models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
	if err := s.Repo.AddToCart(ctx, item, maxLineQuantity); err != nil {
		return nil, translate(err, "add to cart")
	}
	item.Product = product

	publish(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_added", map[string]any{
		"user_id":    userID.String(),
		"product_id": req.ProductID.String(),
		"quantity":   item.Quantity,
	})
	return item, nil
}

// UpdateQuantity overwrites the quantity of a line; zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity uint) (transport.CartItemResponse, error) {
	if productID == uuid.Nil {
		return transport.CartItemResponse{}, validation("product_id required")
	}
	if quantity > maxLineQuantity {
		return transport.CartItemResponse{}, validation("quantity cannot exceed %d", maxLineQuantity)
	}

	deleted, item, err := s.Repo.SetCartQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transport.CartItemResponse{}, fmt.Errorf("product not in cart: %w", ErrNotFound)
		}
		return transport.CartItemResponse{}, err
	}

	resp := transport.CartItemResponse{ProductID: productID, Deleted: deleted}
	if !deleted {
		resp.Quantity = item.Quantity
	}
	publish(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_updated", map[string]any{
		"user_id":    userID.String(),
		"product_id": productID.String(),
		"quantity":   resp.Quantity,
	})
	return resp, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return validation("product_id required")
	}
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not in cart: %w", ErrNotFound)
		}
		return err
	}
	publish(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_removed", map[string]any{
		"user_id":    userID.String(),
		"product_id": productID.String(),
	})
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		publish(ctx, s.Events, events.TopicCart, userID.String(), "cart_cleared", map[string]any{"user_id": userID.String()})
	}
	return nil
}
