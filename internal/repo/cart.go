package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetCartForUpdate loads the cart rows with a row lock, for order checkout.
func (r *GormRepo) GetCartForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart inserts the line or adds to the existing quantity in one
// statement, capped at limit. item is reloaded with the stored row.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem, limit uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summed := "cart_items.quantity + excluded.quantity"
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("CASE WHEN "+summed+" > ? THEN ? ELSE "+summed+" END", limit, limit),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(item).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(item).Error
	})
}

// SetCartQuantity overwrites the quantity; zero removes the row.
func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, productID uuid.UUID, quantity uint) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&item).Error; err != nil {
			return err
		}
		if quantity == 0 {
			deleted = true
			return tx.Delete(&item).Error
		}
		item.Quantity = quantity
		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, &item, nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
