package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

type OrderQuery struct {
	UserID    *uuid.UUID
	Statuses  []models.OrderStatus
	From      *time.Time
	To        *time.Time
	WithItems bool
}

func (q OrderQuery) apply(db *gorm.DB) *gorm.DB {
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at < ?", *q.To)
	}
	if q.WithItems {
		db = db.Preload("Items")
	}
	return db
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns matching orders, newest first.
func (r *GormRepo) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	if err := q.apply(r.DB.WithContext(ctx).Model(&models.Order{})).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CompareAndSetStatus moves the order from one status to another and reports
// false when the stored status no longer equals from.
func (r *GormRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
