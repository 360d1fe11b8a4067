package repository

import (
	"context"
	"time"

	"caketime/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	DB *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&entity.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).Error
	return count > 0, err
}

// PurgeExpired drops revocations whose tokens would be rejected anyway.
func (r *TokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&entity.RevokedToken{})
	return res.RowsAffected, res.Error
}
