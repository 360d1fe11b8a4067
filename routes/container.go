package routes

import (
	"caketime/configs"
	"caketime/events"
	"caketime/repository"
	"caketime/services"
	"caketime/utils"
	"caketime/ws"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Externals are the collaborators that leave the process.
type Externals struct {
	Gateway   services.PaymentGateway
	Mailer    services.Mailer
	Publisher events.Publisher
}

// Container holds the wired application.
type Container struct {
	Config *configs.Config
	DB     *gorm.DB
	Logger *zap.Logger

	CustomerTokens *utils.CustomerTokens
	AdminTokens    *utils.AdminTokens

	Auth          *services.AuthService
	Products      *services.ProductService
	Orders        *services.OrderService
	Payments      *services.PaymentService
	CustomOrders  *services.CustomOrderService
	Reviews       *services.ReviewService
	Reports       *services.ReportService
	Notifications *services.NotificationService

	Feed      *ws.OrderFeed
	Publisher events.Publisher
}

func NewContainer(cfg *configs.Config, db *gorm.DB, logger *zap.Logger, ext Externals) (*Container, error) {
	notifications, err := services.NewNotificationService(ext.Mailer, cfg.AdminEmail, cfg.FrontendURL, logger)
	if err != nil {
		return nil, err
	}

	feed := ws.NewOrderFeed(logger)
	publisher := events.Multi{feed}
	if ext.Publisher != nil {
		publisher = append(publisher, ext.Publisher)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customRepo := repository.NewCustomOrderRepository(db)
	reportRepo := repository.NewReportRepository(db)

	customerTokens := utils.NewCustomerTokens(cfg.JWTSecret, cfg.JWTTTL)
	adminTokens := utils.NewAdminTokens(cfg.AdminJWTSecret, cfg.AdminJWTTTL)

	orders := services.NewOrderService(db, orderRepo, productRepo, notifications, publisher, cfg.Currency, logger)

	return &Container{
		Config:         cfg,
		DB:             db,
		Logger:         logger,
		CustomerTokens: customerTokens,
		AdminTokens:    adminTokens,
		Auth:           services.NewAuthService(userRepo, tokenRepo, customerTokens, adminTokens, logger),
		Products:       services.NewProductService(productRepo),
		Orders:         orders,
		Payments: services.NewPaymentService(db, paymentRepo, orders, ext.Gateway,
			cfg.StripePublishableKey, cfg.FrontendURL, logger),
		CustomOrders:  services.NewCustomOrderService(customRepo, notifications, publisher, logger),
		Reviews:       services.NewReviewService(db, reviewRepo, productRepo, logger),
		Reports:       services.NewReportService(reportRepo, orderRepo, productRepo, userRepo, customRepo),
		Notifications: notifications,
		Feed:          feed,
		Publisher:     publisher,
	}, nil
}
