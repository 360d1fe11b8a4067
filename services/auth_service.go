package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caketime/entity"
	"caketime/repository"
	"caketime/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles customer and back-office credentials.
type AuthService struct {
	userRepo  *repository.UserRepository
	tokenRepo *repository.TokenRepository
	customer  *utils.CustomerTokens
	admin     *utils.AdminTokens
	logger    *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokenRepo *repository.TokenRepository,
	customer *utils.CustomerTokens,
	admin *utils.AdminTokens,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		customer:  customer,
		admin:     admin,
		logger:    logger,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register always creates a customer, whatever the caller asked for.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, *entity.User, error) {
	user, err := s.createUser(ctx, in, entity.RoleCustomer)
	if err != nil {
		return "", nil, err
	}
	token, err := s.customer.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.customer.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// AdminLogin only admits back-office roles. Customers get the same error as a
// wrong password.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if !user.Role.IsBackOffice() {
		s.logger.Warn("non back-office login attempt on admin endpoint", zap.Uint("user_id", user.ID))
		return "", nil, ErrInvalidCredentials
	}
	token, _, err := s.admin.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// CreateStaff registers an admin or staff account.
func (s *AuthService) CreateStaff(ctx context.Context, in RegisterInput, role entity.Role) (*entity.User, error) {
	if !role.IsBackOffice() {
		return nil, ErrInvalidRole
	}
	return s.createUser(ctx, in, role)
}

// Logout revokes the admin credential until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	exp := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, exp); err != nil {
		return err
	}
	if n, err := s.tokenRepo.PurgeExpired(ctx); err != nil {
		s.logger.Warn("purge expired revocations", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("purged expired revocations", zap.Int64("count", n))
	}
	return nil
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.tokenRepo.IsRevoked(ctx, jti)
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role entity.Role) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	count, err := s.userRepo.CountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &entity.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hashed),
		Phone:    strings.TrimSpace(in.Phone),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkPassword(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
