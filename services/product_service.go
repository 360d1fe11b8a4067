package services

import (
	"context"
	"errors"
	"strings"

	"caketime/entity"
	"caketime/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService struct {
	repo *repository.ProductRepository
}

func NewProductService(repo *repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

type ProductInput struct {
	Name        string          `json:"name" binding:"required,max=120"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required"`
	Flavor      string          `json:"flavor"`
	Occasion    string          `json:"occasion"`
	Images      []string        `json:"images"`
	Tags        []string        `json:"tags"`
	Eggless     bool            `json:"eggless"`
	InStock     *bool           `json:"inStock"`
	Featured    bool            `json:"featured"`
}

type ProductPage struct {
	Items []entity.Product `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Pages int64            `json:"pages"`
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) (*ProductPage, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 12
	}
	return &ProductPage{
		Items: items,
		Total: total,
		Page:  page,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// Get returns the product with its approved reviews.
func (s *ProductService) Get(ctx context.Context, id uint) (*entity.Product, error) {
	p, err := s.repo.FindWithApprovedReviews(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*entity.Product, error) {
	p := &entity.Product{InStock: true}
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*entity.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rating and review count are derived, so they are never taken from input
func applyProductInput(p *entity.Product, in ProductInput) error {
	cat := entity.Category(strings.ToLower(strings.TrimSpace(in.Category)))
	if !cat.Valid() {
		return ErrInvalidCategory
	}
	if !in.Price.IsPositive() {
		return ErrInvalidAmount
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price.Round(2)
	p.Category = cat
	p.Flavor = strings.TrimSpace(in.Flavor)
	p.Occasion = strings.TrimSpace(in.Occasion)
	p.Images = in.Images
	p.Tags = in.Tags
	p.Eggless = in.Eggless
	p.Featured = in.Featured
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	return nil
}
