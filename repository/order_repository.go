package repository

import (
	"context"
	"strings"
	"time"

	"caketime/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// ---------------- Orders ----------------

// CreateOrder inserts the order and its items.
func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID uint) (*entity.Order, error) {
	return r.first(r.DB.WithContext(ctx).Where("id = ?", orderID))
}

func (r *OrderRepository) GetByIntentID(ctx context.Context, intentID string) (*entity.Order, error) {
	return r.first(r.DB.WithContext(ctx).Where("payment_intent_id = ?", intentID))
}

func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Order, error) {
	return r.first(r.DB.WithContext(ctx).Where("idempotency_key = ?", key))
}

// GetForCustomer returns the order only if it belongs to the user, either by
// account or by the e-mail it was placed with.
func (r *OrderRepository) GetForCustomer(ctx context.Context, orderID, userID uint, email string) (*entity.Order, error) {
	return r.first(r.DB.WithContext(ctx).
		Where("id = ?", orderID).
		Where("user_id = ? OR LOWER(customer_email) = ?", userID, strings.ToLower(email)))
}

func (r *OrderRepository) first(q *gorm.DB) (*entity.Order, error) {
	var o entity.Order
	if err := q.Preload("Items").First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

type OrderFilter struct {
	Status        string
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Search        string
	Page          int
	Limit         int
}

func (r *OrderRepository) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&entity.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ? OR customer_phone LIKE ?",
			like, like, like, like)
	}
	return q
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]entity.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entity.Order
	err := r.filtered(ctx, f).Preload("Items").
		Order("id DESC").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&out).Error
	return out, total, err
}

// ListAll is List without paging, for exports.
func (r *OrderRepository) ListAll(ctx context.Context, f OrderFilter) ([]entity.Order, error) {
	var out []entity.Order
	err := r.filtered(ctx, f).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *OrderRepository) ListForCustomer(ctx context.Context, userID uint, email string, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []entity.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ? OR LOWER(customer_email) = ?", userID, strings.ToLower(email)).
		Order("id DESC").Limit(limit).
		Find(&out).Error
	return out, err
}

// ---------------- Status / payment writes ----------------

// UpdateStatusGuard only moves the order if it is still in fromStatus.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to entity.OrderStatus) (int64, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// MarkPaid records a confirmed charge. Already-paid and cancelled orders are
// not touched, so it returns 0 rows for either.
func (r *OrderRepository) MarkPaid(tx *gorm.DB, orderID uint, intentID string, amount decimal.Decimal, currency string, paidAt time.Time) (int64, error) {
	updates := map[string]any{
		"payment_status":   entity.PaymentPaid,
		"payment_amount":   amount,
		"payment_currency": currency,
		"payment_paid_at":  paidAt,
		"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			entity.OrderPending, entity.OrderConfirmed),
	}
	if intentID != "" {
		updates["payment_intent_id"] = intentID
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND payment_status <> ? AND status <> ?", orderID, entity.PaymentPaid, entity.OrderCancelled).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkPaymentFailed leaves the order status alone.
func (r *OrderRepository) MarkPaymentFailed(tx *gorm.DB, orderID uint, intentID string) (int64, error) {
	updates := map[string]any{"payment_status": entity.PaymentFailed}
	if intentID != "" {
		updates["payment_intent_id"] = intentID
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, entity.PaymentPaid).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *OrderRepository) SetCheckoutSession(ctx context.Context, orderID uint, sessionID string) error {
	return r.DB.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", orderID).
		Update("payment_session_id", sessionID).Error
}
