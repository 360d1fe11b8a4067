package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caketime/entity"
	"caketime/events"
	"caketime/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomOrderService struct {
	repo      *repository.CustomOrderRepository
	notifier  *NotificationService
	publisher events.Publisher
	logger    *zap.Logger
}

func NewCustomOrderService(repo *repository.CustomOrderRepository, notifier *NotificationService, publisher events.Publisher, logger *zap.Logger) *CustomOrderService {
	return &CustomOrderService{repo: repo, notifier: notifier, publisher: publisher, logger: logger}
}

type CustomOrderInput struct {
	Customer       CustomerIn `json:"customer" binding:"required"`
	CakeType       string     `json:"cakeType" binding:"required,oneof=birthday wedding anniversary theme photo tiered other"`
	Flavor         string     `json:"flavor" binding:"required,max=64"`
	Weight         string     `json:"weight" binding:"required,max=32"`
	Shape          string     `json:"shape" binding:"max=32"`
	Theme          string     `json:"theme" binding:"max=200"`
	Message        string     `json:"message" binding:"max=200"`
	DeliveryDate   string     `json:"deliveryDate" binding:"required,datetime=2006-01-02"`
	DeliveryTime   string     `json:"deliveryTime" binding:"max=32"`
	ReferenceImage string     `json:"referenceImage" binding:"omitempty,url"`
}

// CustomOrderUpdate is a partial update; nil fields are left alone.
type CustomOrderUpdate struct {
	Status         *string          `json:"status"`
	EstimatedPrice *decimal.Decimal `json:"estimatedPrice"`
	FinalPrice     *decimal.Decimal `json:"finalPrice"`
	AdminNotes     *string          `json:"adminNotes" binding:"omitempty,max=2000"`
}

type CustomOrderPage struct {
	Items []entity.CustomOrder `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Pages int64                `json:"pages"`
}

func (s *CustomOrderService) Create(ctx context.Context, in CustomOrderInput) (*entity.CustomOrder, error) {
	co := &entity.CustomOrder{
		Customer: entity.CustomerInfo{
			Name:  strings.TrimSpace(in.Customer.Name),
			Email: normalizeEmail(in.Customer.Email),
			Phone: strings.TrimSpace(in.Customer.Phone),
		},
		CakeType:       entity.CakeType(in.CakeType),
		Flavor:         strings.TrimSpace(in.Flavor),
		Weight:         strings.TrimSpace(in.Weight),
		Shape:          strings.TrimSpace(in.Shape),
		Theme:          strings.TrimSpace(in.Theme),
		Message:        strings.TrimSpace(in.Message),
		DeliveryDate:   in.DeliveryDate,
		DeliveryTime:   strings.TrimSpace(in.DeliveryTime),
		ReferenceImage: strings.TrimSpace(in.ReferenceImage),
		Status:         entity.CustomPending,
	}
	if !co.CakeType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCakeType, in.CakeType)
	}
	if err := s.repo.Create(ctx, co); err != nil {
		return nil, err
	}

	s.logger.Info("custom order received", zap.Uint("custom_order_id", co.ID))
	publish(ctx, s.publisher, s.logger, customOrderEvent(events.CustomOrderCreated, co))
	s.notifier.CustomOrderReceived(co)
	return co, nil
}

func (s *CustomOrderService) Get(ctx context.Context, id uint) (*entity.CustomOrder, error) {
	co, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return co, err
}

func (s *CustomOrderService) List(ctx context.Context, status, search string, page, limit int) (*CustomOrderPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, total, err := s.repo.List(ctx, status, search, page, limit)
	if err != nil {
		return nil, err
	}
	return &CustomOrderPage{
		Items: items,
		Total: total,
		Page:  page,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// Update applies an admin edit. Only a status change notifies the customer.
func (s *CustomOrderService) Update(ctx context.Context, id uint, in CustomOrderUpdate) (*entity.CustomOrder, error) {
	co, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if in.Status != nil {
		st := entity.CustomOrderStatus(*in.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
		}
		statusChanged = st != co.Status
		co.Status = st
	}
	if in.EstimatedPrice != nil {
		if in.EstimatedPrice.IsNegative() {
			return nil, ErrInvalidAmount
		}
		co.EstimatedPrice = decimal.NewNullDecimal(in.EstimatedPrice.Round(2))
	}
	if in.FinalPrice != nil {
		if in.FinalPrice.IsNegative() {
			return nil, ErrInvalidAmount
		}
		co.FinalPrice = decimal.NewNullDecimal(in.FinalPrice.Round(2))
	}
	if in.AdminNotes != nil {
		co.AdminNotes = strings.TrimSpace(*in.AdminNotes)
	}

	if err := s.repo.Save(ctx, co); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, customOrderEvent(events.CustomOrderUpdated, co))
	if statusChanged {
		s.notifier.CustomOrderUpdated(co)
	}
	return co, nil
}
