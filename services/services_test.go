package services

import (
	"context"
	"testing"

	"caketime/repository"
	"caketime/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	gw        *testutil.FakeGateway
	mailer    *testutil.FakeMailer
	publisher *testutil.RecordingPublisher
	notifier  *NotificationService
	orders    *OrderService
	payments  *PaymentService
	reviews   *ReviewService
	reports   *ReportService
	custom    *CustomOrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutil.Config()
	log := testutil.Logger()
	db := testutil.NewTestDB(t)

	env := &testEnv{
		db:        db,
		gw:        testutil.NewFakeGateway(),
		mailer:    &testutil.FakeMailer{},
		publisher: &testutil.RecordingPublisher{},
	}
	var err error
	env.notifier, err = NewNotificationService(env.mailer, cfg.AdminEmail, cfg.FrontendURL, log)
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	customRepo := repository.NewCustomOrderRepository(db)
	env.orders = NewOrderService(db, orderRepo, productRepo, env.notifier, env.publisher, cfg.Currency, log)
	env.payments = NewPaymentService(db, repository.NewPaymentRepository(db), env.orders, env.gw,
		cfg.StripePublishableKey, cfg.FrontendURL, log)
	env.reviews = NewReviewService(db, repository.NewReviewRepository(db), productRepo, log)
	env.reports = NewReportService(repository.NewReportRepository(db), orderRepo, productRepo,
		repository.NewUserRepository(db), customRepo)
	env.custom = NewCustomOrderService(customRepo, env.notifier, env.publisher, log)

	t.Cleanup(func() { _ = env.notifier.Wait(context.Background()) })
	return env
}

func orderInput(items ...OrderItemIn) *CreateOrderInput {
	return &CreateOrderInput{
		Customer: CustomerIn{Name: "Asha Rao", Email: "Asha@Example.com", Phone: "9876543210"},
		Items:    items,
		Delivery: DeliveryIn{
			Address: "12 MG Road",
			City:    "Bengaluru",
			Pincode: "560001",
			Date:    "2030-01-15",
			Time:    "18:00",
		},
		Payment: PaymentIn{Method: "card"},
	}
}
