package repository

import (
	"context"
	"strings"

	"caketime/entity"

	"gorm.io/gorm"
)

type CustomOrderRepository struct {
	DB *gorm.DB
}

func NewCustomOrderRepository(db *gorm.DB) *CustomOrderRepository {
	return &CustomOrderRepository{DB: db}
}

func (r *CustomOrderRepository) Create(ctx context.Context, o *entity.CustomOrder) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *CustomOrderRepository) FindByID(ctx context.Context, id uint) (*entity.CustomOrder, error) {
	var o entity.CustomOrder
	if err := r.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *CustomOrderRepository) List(ctx context.Context, status, search string, page, limit int) ([]entity.CustomOrder, int64, error) {
	q := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&entity.CustomOrder{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if s := strings.TrimSpace(search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entity.CustomOrder
	err := q().Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&out).Error
	return out, total, err
}

func (r *CustomOrderRepository) Save(ctx context.Context, o *entity.CustomOrder) error {
	return r.DB.WithContext(ctx).Save(o).Error
}

func (r *CustomOrderRepository) CountByStatus(ctx context.Context, status entity.CustomOrderStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&entity.CustomOrder{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
