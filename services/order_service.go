package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caketime/entity"
	"caketime/events"
	"caketime/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService struct {
	DB        *gorm.DB
	Repo      *repository.OrderRepository
	Products  *repository.ProductRepository
	Notifier  *NotificationService
	Publisher events.Publisher
	Currency  string
	Logger    *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	repo *repository.OrderRepository,
	products *repository.ProductRepository,
	notifier *NotificationService,
	publisher events.Publisher,
	currency string,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		DB:        db,
		Repo:      repo,
		Products:  products,
		Notifier:  notifier,
		Publisher: publisher,
		Currency:  strings.ToLower(currency),
		Logger:    logger,
	}
}

// ----- DTOs from Controller -----
type CustomerIn struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,min=7,max=20"`
}

type OrderItemIn struct {
	ProductID     uint   `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1,max=100"`
	Customization string `json:"customization" binding:"max=500"`
}

type DeliveryIn struct {
	Address string `json:"address" binding:"required,max=300"`
	City    string `json:"city" binding:"required,max=100"`
	Pincode string `json:"pincode" binding:"required,min=4,max=10"`
	Date    string `json:"date" binding:"required,datetime=2006-01-02"`
	Time    string `json:"time" binding:"max=32"`
}

type PaymentIn struct {
	Method string `json:"method" binding:"omitempty,oneof=card upi cod"`
	// Amount is what the client thinks it owes; the server recomputes it.
	Amount *decimal.Decimal `json:"amount"`
}

type CreateOrderInput struct {
	Customer CustomerIn    `json:"customer" binding:"required"`
	Items    []OrderItemIn `json:"items" binding:"required,min=1,dive"`
	Delivery DeliveryIn    `json:"delivery" binding:"required"`
	Payment  PaymentIn     `json:"payment"`
	Notes    string        `json:"notes" binding:"max=1000"`
}

type OrderPage struct {
	Items []entity.Order `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Pages int64          `json:"pages"`
}

// ----- Create -----

// Create persists a pending order priced from the catalog. A repeated
// idempotency key returns the first order and created=false.
func (s *OrderService) Create(ctx context.Context, in *CreateOrderInput, userID *uint, idempotencyKey string) (*entity.Order, bool, error) {
	if idempotencyKey != "" {
		existing, err := s.Repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	order, err := s.build(ctx, in)
	if err != nil {
		return nil, false, err
	}
	order.UserID = userID
	if idempotencyKey != "" {
		order.IdempotencyKey = &idempotencyKey
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Repo.CreateOrder(tx, order)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && idempotencyKey != "" {
		// lost the race against a concurrent retry with the same key
		existing, gerr := s.Repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.Logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", order.Payment.Amount.String()))
	publish(ctx, s.Publisher, s.Logger, orderEvent(events.OrderCreated, order))
	s.Notifier.OrderPlaced(order)
	return order, true, nil
}

// build prices the order from persisted product prices. Nothing is written.
func (s *OrderService) build(ctx context.Context, in *CreateOrderInput) (*entity.Order, error) {
	items, total, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	if in.Payment.Amount != nil && !in.Payment.Amount.Equal(total) {
		s.Logger.Warn("client order amount differs from catalog total",
			zap.String("client_amount", in.Payment.Amount.String()),
			zap.String("total", total.String()),
			zap.String("email", in.Customer.Email))
	}

	method := entity.PaymentMethod(in.Payment.Method)
	if method == "" {
		method = entity.MethodCard
	}
	return &entity.Order{
		OrderNumber: newOrderNumber(),
		Customer: entity.CustomerInfo{
			Name:  strings.TrimSpace(in.Customer.Name),
			Email: normalizeEmail(in.Customer.Email),
			Phone: strings.TrimSpace(in.Customer.Phone),
		},
		Items: items,
		Delivery: entity.DeliveryInfo{
			Address: strings.TrimSpace(in.Delivery.Address),
			City:    strings.TrimSpace(in.Delivery.City),
			Pincode: strings.TrimSpace(in.Delivery.Pincode),
			Date:    in.Delivery.Date,
			Time:    strings.TrimSpace(in.Delivery.Time),
		},
		Payment: entity.Payment{
			Method:   method,
			Status:   entity.PaymentPending,
			Amount:   total,
			Currency: s.Currency,
		},
		Status: entity.OrderPending,
		Notes:  strings.TrimSpace(in.Notes),
	}, nil
}

// priceItems snapshots each product and sums the subtotals.
func (s *OrderService) priceItems(ctx context.Context, in []OrderItemIn) ([]entity.OrderItem, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, ErrEmptyOrder
	}
	ids := make([]uint, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	items := make([]entity.OrderItem, 0, len(in))
	for _, it := range in {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %d", ErrProductUnavailable, it.ProductID)
		}
		if !p.InStock {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
		}
		if it.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for %s", ErrInvalidAmount, p.Name)
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(subtotal)
		items = append(items, entity.OrderItem{
			ProductID:     p.ID,
			Name:          p.Name,
			Category:      p.Category,
			Image:         p.PrimaryImage(),
			Quantity:      it.Quantity,
			UnitPrice:     p.Price,
			Subtotal:      subtotal,
			Customization: strings.TrimSpace(it.Customization),
		})
	}
	return items, total, nil
}

func newOrderNumber() string {
	return "CT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// ----- Queries -----

func (s *OrderService) Get(ctx context.Context, id uint) (*entity.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *OrderService) List(ctx context.Context, f repository.OrderFilter) (*OrderPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}
	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Items: items,
		Total: total,
		Page:  f.Page,
		Pages: (total + int64(f.Limit) - 1) / int64(f.Limit),
	}, nil
}

// ForCustomer returns the order only if it belongs to the user.
func (s *OrderService) ForCustomer(ctx context.Context, orderID uint, user *entity.User) (*entity.Order, error) {
	o, err := s.Repo.GetForCustomer(ctx, orderID, user.ID, user.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *OrderService) ListForCustomer(ctx context.Context, user *entity.User) ([]entity.Order, error) {
	return s.Repo.ListForCustomer(ctx, user.ID, user.Email, 50)
}
