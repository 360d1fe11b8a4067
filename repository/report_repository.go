package repository

import (
	"context"
	"time"

	"caketime/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

// OrderFact is the slice of an order the reports aggregate over.
type OrderFact struct {
	ID            uint
	CreatedAt     time.Time
	CustomerName  string
	CustomerEmail string
	Status        entity.OrderStatus
	PaymentStatus entity.PaymentStatus
	PaymentAmount decimal.Decimal
	ItemsSold     int64
}

// Revenue counts only paid orders.
func (f OrderFact) Revenue() decimal.Decimal {
	if f.PaymentStatus != entity.PaymentPaid {
		return decimal.Zero
	}
	return f.PaymentAmount
}

// OrderFacts loads orders created in [from, to). A zero bound is open.
func (r *ReportRepository) OrderFacts(ctx context.Context, from, to time.Time) ([]OrderFact, error) {
	items := r.DB.Model(&entity.OrderItem{}).
		Select("order_id, SUM(quantity) AS items_sold").
		Group("order_id")

	q := r.DB.WithContext(ctx).Model(&entity.Order{}).
		Select(`orders.id, orders.created_at, orders.customer_name, orders.customer_email,
			orders.status, orders.payment_status, orders.payment_amount,
			COALESCE(oi.items_sold, 0) AS items_sold`).
		Joins("LEFT JOIN (?) AS oi ON oi.order_id = orders.id", items)
	if !from.IsZero() {
		q = q.Where("orders.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("orders.created_at < ?", to)
	}

	var out []OrderFact
	err := q.Order("orders.created_at ASC").Scan(&out).Error
	return out, err
}

func (r *ReportRepository) CountOrders(ctx context.Context, status entity.OrderStatus) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&entity.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *ReportRepository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Total decimal.NullDecimal }
	err := r.DB.WithContext(ctx).Model(&entity.Order{}).
		Select("SUM(payment_amount) AS total").
		Where("payment_status = ?", entity.PaymentPaid).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}

type TopProduct struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// TopProducts ranks products by quantity sold over non-cancelled orders.
func (r *ReportRepository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var out []TopProduct
	err := r.DB.WithContext(ctx).Model(&entity.OrderItem{}).
		Select("order_items.product_id, MAX(order_items.name) AS name, SUM(order_items.quantity) AS quantity, SUM(order_items.subtotal) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("orders.status <> ?", entity.OrderCancelled).
		Group("order_items.product_id").
		Order("quantity DESC, order_items.product_id ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

type CategorySales struct {
	Category entity.Category `json:"category"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func (r *ReportRepository) CategoryBreakdown(ctx context.Context) ([]CategorySales, error) {
	var out []CategorySales
	err := r.DB.WithContext(ctx).Model(&entity.OrderItem{}).
		Select("order_items.category, SUM(order_items.quantity) AS quantity, SUM(order_items.subtotal) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("orders.status <> ?", entity.OrderCancelled).
		Group("order_items.category").
		Order("revenue DESC").
		Scan(&out).Error
	return out, err
}

func (r *ReportRepository) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.WithContext(ctx).Preload("Items").Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
