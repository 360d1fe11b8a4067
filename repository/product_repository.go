package repository

import (
	"context"
	"strings"

	"caketime/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Category string
	Flavor   string
	Occasion string
	Eggless  *bool
	Featured *bool
	InStock  *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     string
	Page     int
	Limit    int
}

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

var productSorts = map[string]string{
	"newest":     "created_at DESC",
	"price-asc":  "price ASC",
	"price-desc": "price DESC",
	"rating":     "rating DESC, review_count DESC",
	"name":       "name ASC",
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]entity.Product, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 12
	}

	q := r.DB.WithContext(ctx).Model(&entity.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", strings.ToLower(f.Category))
	}
	if f.Flavor != "" {
		q = q.Where("LOWER(flavor) = ?", strings.ToLower(f.Flavor))
	}
	if f.Occasion != "" {
		q = q.Where("LOWER(occasion) = ?", strings.ToLower(f.Occasion))
	}
	if f.Eggless != nil {
		q = q.Where("eggless = ?", *f.Eggless)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.InStock != nil {
		q = q.Where("in_stock = ?", *f.InStock)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	var items []entity.Product
	err := q.Order(order).Order("id DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	var p entity.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindWithApprovedReviews loads the product and its visible reviews, newest first.
func (r *ProductRepository) FindWithApprovedReviews(ctx context.Context, id uint) (*entity.Product, error) {
	var p entity.Product
	err := r.DB.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Where("approved = ?", true).Order("created_at DESC")
		}).
		Preload("Reviews.User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]entity.Product, error) {
	var rows []entity.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]entity.Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// Save writes every column, so false/zero values stick.
func (r *ProductRepository) Save(ctx context.Context, p *entity.Product) error {
	return r.DB.WithContext(ctx).Omit("Reviews").Save(p).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&entity.Product{}, id)
	return res.RowsAffected, res.Error
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&entity.Product{}).Count(&n).Error
	return n, err
}

// RecomputeRating refreshes the denormalised rating from approved reviews.
// Call it inside the transaction that changed the reviews.
func (r *ProductRepository) RecomputeRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Avg   decimal.NullDecimal
		Count int64
	}
	if err := tx.Model(&entity.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("product_id = ? AND approved = ?", productID, true).
		Scan(&agg).Error; err != nil {
		return err
	}
	rating := decimal.Zero
	if agg.Avg.Valid {
		rating = agg.Avg.Decimal.Round(2)
	}
	return tx.Model(&entity.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"rating": rating, "review_count": agg.Count}).Error
}
