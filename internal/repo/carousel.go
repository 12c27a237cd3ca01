package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

func (r *GormRepo) ListCarousel(ctx context.Context, activeOnly bool) ([]models.CarouselImage, error) {
	var images []models.CarouselImage
	q := r.DB.WithContext(ctx).Model(&models.CarouselImage{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("position ASC").Order("created_at ASC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *GormRepo) ListCarouselForUpdate(ctx context.Context) ([]models.CarouselImage, error) {
	var images []models.CarouselImage
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("position ASC").Order("created_at ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *GormRepo) GetCarouselImage(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error) {
	var img models.CarouselImage
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *GormRepo) NextCarouselPosition(ctx context.Context) (int, error) {
	var maxPos sql.NullInt64
	row := r.DB.WithContext(ctx).Model(&models.CarouselImage{}).Select("MAX(position)").Row()
	if err := row.Scan(&maxPos); err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

func (r *GormRepo) CreateCarouselImage(ctx context.Context, img *models.CarouselImage) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

func (r *GormRepo) SaveCarouselImage(ctx context.Context, img *models.CarouselImage) error {
	return r.DB.WithContext(ctx).Save(img).Error
}

func (r *GormRepo) DeleteCarouselImage(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.CarouselImage{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCarouselPositions rewrites position = index for every id, in one batch.
func (r *GormRepo) SetCarouselPositions(ctx context.Context, ordered []uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ordered {
			if err := tx.Model(&models.CarouselImage{}).Where("id = ?", id).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
