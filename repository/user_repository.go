package repository

import (
	"context"
	"time"

	"caketime/entity"

	"gorm.io/gorm"
)

// UserRepository only talks to the users table.
type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&entity.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountCustomersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&entity.User{}).
		Where("role = ? AND created_at >= ?", entity.RoleCustomer, since).
		Count(&count).Error
	return count, err
}
