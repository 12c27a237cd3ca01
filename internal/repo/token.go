package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/hash"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, userID uuid.UUID, jti, rawToken string, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.RefreshToken{
		UserID:    userID,
		JTI:       jti,
		TokenHash: hash.Sha256Hex(rawToken),
		ExpiresAt: expiresAt,
	}).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ConsumeRefreshToken locks the token and marks it revoked. It returns
// gorm.ErrRecordNotFound when the token is unknown, revoked or expired.
func (r *GormRepo) ConsumeRefreshToken(ctx context.Context, jti, rawToken string, now time.Time) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("jti = ? AND token_hash = ?", jti, hash.Sha256Hex(rawToken)).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	if token.Revoked || token.ExpiresAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.DB.WithContext(ctx).Model(&token).Update("revoked", true).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ? OR revoked = ?", now, true).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
