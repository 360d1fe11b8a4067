package repository

import (
	"context"

	"caketime/entity"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) Create(tx *gorm.DB, rev *entity.Review) error {
	return tx.Create(rev).Error
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (*entity.Review, error) {
	var rev entity.Review
	if err := r.DB.WithContext(ctx).First(&rev, id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) ExistsForUser(ctx context.Context, productID, userID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&entity.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepository) ListApproved(ctx context.Context, productID uint, limit, offset int) ([]entity.Review, error) {
	var out []entity.Review
	err := r.DB.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("product_id = ? AND approved = ?", productID, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *ReviewRepository) ListAll(ctx context.Context, approved *bool, page, limit int) ([]entity.Review, int64, error) {
	q := r.DB.WithContext(ctx).Model(&entity.Review{})
	if approved != nil {
		q = q.Where("approved = ?", *approved)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entity.Review
	err := q.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("id DESC").Limit(limit).Offset((page - 1) * limit).
		Find(&out).Error
	return out, total, err
}

func (r *ReviewRepository) SetApproved(tx *gorm.DB, id uint) error {
	return tx.Model(&entity.Review{}).Where("id = ?", id).Update("approved", true).Error
}

// Delete is a hard delete so the user may review the product again.
func (r *ReviewRepository) Delete(tx *gorm.DB, id uint) error {
	return tx.Unscoped().Delete(&entity.Review{}, id).Error
}
