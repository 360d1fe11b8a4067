package services

import (
	"context"
	"errors"
	"strings"

	"caketime/entity"
	"caketime/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService keeps Product.Rating and ReviewCount in step with approved
// reviews. Every review write and the recount share one transaction.
type ReviewService struct {
	db       *gorm.DB
	repo     *repository.ReviewRepository
	products *repository.ProductRepository
	logger   *zap.Logger
}

func NewReviewService(db *gorm.DB, repo *repository.ReviewRepository, products *repository.ProductRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{db: db, repo: repo, products: products, logger: logger}
}

type ReviewInput struct {
	ProductID uint   `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"required,max=1000"`
}

type ProductReviews struct {
	ProductID uint            `json:"productId"`
	Rating    decimal.Decimal `json:"rating"`
	Count     int64           `json:"count"`
	Reviews   []entity.Review `json:"reviews"`
}

type ReviewPage struct {
	Items []entity.Review `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Pages int64           `json:"pages"`
}

// ForProduct lists approved reviews with the product's aggregate.
func (s *ReviewService) ForProduct(ctx context.Context, productID uint, page, limit int) (*ProductReviews, error) {
	p, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	reviews, err := s.repo.ListApproved(ctx, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{
		ProductID: p.ID,
		Rating:    p.Rating,
		Count:     p.ReviewCount,
		Reviews:   reviews,
	}, nil
}

// Create stores an unapproved review; it does not count until approved.
func (s *ReviewService) Create(ctx context.Context, userID uint, in ReviewInput) (*entity.Review, error) {
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	exists, err := s.repo.ExistsForUser(ctx, in.ProductID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	rev := &entity.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Create(tx, rev)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *ReviewService) ListAll(ctx context.Context, approved *bool, page, limit int) (*ReviewPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, total, err := s.repo.ListAll(ctx, approved, page, limit)
	if err != nil {
		return nil, err
	}
	return &ReviewPage{
		Items: items,
		Total: total,
		Page:  page,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

func (s *ReviewService) Approve(ctx context.Context, id uint) (*entity.Review, error) {
	rev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.SetApproved(tx, rev.ID); err != nil {
			return err
		}
		return s.products.RecomputeRating(tx, rev.ProductID)
	})
	if err != nil {
		return nil, err
	}
	rev.Approved = true
	s.logger.Info("review approved", zap.Uint("review_id", rev.ID), zap.Uint("product_id", rev.ProductID))
	return rev, nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	rev, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Delete(tx, rev.ID); err != nil {
			return err
		}
		return s.products.RecomputeRating(tx, rev.ProductID)
	})
}

func (s *ReviewService) find(ctx context.Context, id uint) (*entity.Review, error) {
	rev, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return rev, err
}
