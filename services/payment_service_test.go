package services

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"caketime/entity"
	"caketime/events"
	"caketime/pkg/gateway"
	"caketime/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeCakeOrder places 2 x 400 + 1 x 100 = 900.
func placeCakeOrder(t *testing.T, env *testEnv) *entity.Order {
	t.Helper()
	truffle := testutil.SeedProduct(t, env.db, "Truffle Cake", "400", true)
	cupcake := testutil.SeedProduct(t, env.db, "Vanilla Cupcake", "100", true)
	in := orderInput(
		OrderItemIn{ProductID: truffle.ID, Quantity: 2},
		OrderItemIn{ProductID: cupcake.ID, Quantity: 1},
	)
	amount := decimal.NewFromInt(900)
	in.Payment.Amount = &amount

	o, _, err := env.orders.Create(context.Background(), in, nil, "")
	require.NoError(t, err)
	require.Equal(t, entity.OrderPending, o.Status)
	return o
}

func orderMeta(o *entity.Order) map[string]string {
	return map[string]string{gateway.MetaOrderID: strconv.FormatUint(uint64(o.ID), 10)}
}

func TestVerify_SucceededIntentConfirmsOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	env.gw.PutIntent(&gateway.Intent{
		ID: "pi_paid", Status: gateway.IntentSucceeded, Amount: 90000, Currency: "inr", Metadata: orderMeta(o),
	})

	got, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_paid", OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, got.Status)
	assert.Equal(t, entity.PaymentPaid, got.Payment.Status)
	assert.True(t, got.Payment.Amount.Equal(decimal.NewFromInt(900)), "amount %s", got.Payment.Amount)
	assert.Equal(t, "pi_paid", got.Payment.IntentID)
	assert.NotNil(t, got.Payment.PaidAt)
	assert.Equal(t, []string{events.OrderCreated, events.OrderPaid}, env.publisher.Types())

	t.Run("verifying again changes nothing", func(t *testing.T) {
		again, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_paid"})
		require.NoError(t, err)
		assert.Equal(t, got.ID, again.ID)
		assert.Equal(t, entity.OrderConfirmed, again.Status)
		assert.True(t, again.Payment.Amount.Equal(decimal.NewFromInt(900)))
		assert.Len(t, env.publisher.Types(), 2, "no second paid event")
	})
}

func TestVerify_NotSucceededPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	for _, status := range []string{gateway.IntentProcessing, gateway.IntentRequiresPayment, gateway.IntentCanceled} {
		env.gw.PutIntent(&gateway.Intent{ID: "pi_" + status, Status: status, Amount: 90000, Currency: "inr", Metadata: orderMeta(o)})

		_, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_" + status, OrderID: o.ID})
		assert.ErrorIs(t, err, ErrPaymentNotSucceeded, status)
	}

	// a new order in the payload must not be created either
	_, err := env.payments.Verify(ctx, VerifyInput{
		PaymentIntentID: "pi_" + gateway.IntentProcessing,
		Order:           orderInput(OrderItemIn{ProductID: o.Items[0].ProductID, Quantity: 1}),
	})
	assert.ErrorIs(t, err, ErrPaymentNotSucceeded)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, stored.Status)
	assert.Equal(t, entity.PaymentPending, stored.Payment.Status)
	assert.Empty(t, stored.Payment.IntentID)

	var count int64
	require.NoError(t, env.db.Model(&entity.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerify_ChargeBelowTotalIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)
	env.gw.PutIntent(&gateway.Intent{ID: "pi_short", Status: gateway.IntentSucceeded, Amount: 100, Currency: "inr"})

	_, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_short", OrderID: o.ID})
	assert.ErrorIs(t, err, ErrAmountMismatch)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPending, stored.Payment.Status)
}

func TestVerify_CancelledOrderIsNotPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)
	_, err := env.orders.Cancel(ctx, o.ID)
	require.NoError(t, err)
	env.gw.PutIntent(&gateway.Intent{ID: "pi_late", Status: gateway.IntentSucceeded, Amount: 90000, Currency: "inr"})

	_, err = env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_late", OrderID: o.ID})
	assert.ErrorIs(t, err, ErrOrderNotPayable)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, stored.Status)
	assert.Equal(t, entity.PaymentPending, stored.Payment.Status)
	assert.Empty(t, stored.Payment.IntentID)
}

func TestHandleWebhook_SucceededOnCancelledOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)
	_, err := env.orders.Cancel(ctx, o.ID)
	require.NoError(t, err)

	env.gw.ParseWebhookFunc = func([]byte, string) (*gateway.WebhookEvent, error) {
		return &gateway.WebhookEvent{
			ID:   "evt_late",
			Type: gateway.EventIntentSucceeded,
			Intent: &gateway.Intent{ID: "pi_late", Status: gateway.IntentSucceeded,
				Amount: 90000, Currency: "inr", Metadata: orderMeta(o)},
		}, nil
	}
	res, err := env.payments.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, stored.Status)
	assert.Equal(t, entity.PaymentPending, stored.Payment.Status)
}

func TestVerify_CreatesPaidOrderFromPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Chocolate Truffle", "450", true)
	env.gw.PutIntent(&gateway.Intent{ID: "pi_fresh", Status: gateway.IntentSucceeded, Amount: 90000, Currency: "inr"})

	got, err := env.payments.Verify(ctx, VerifyInput{
		PaymentIntentID: "pi_fresh",
		Order:           orderInput(OrderItemIn{ProductID: p.ID, Quantity: 2}),
	})
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, entity.OrderConfirmed, got.Status)
	assert.Equal(t, entity.PaymentPaid, got.Payment.Status)
	assert.True(t, got.Payment.Amount.Equal(decimal.NewFromInt(900)))

	// the same intent resolves to the same order afterwards
	again, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_fresh"})
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
}

func TestVerify_GatewayErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_missing"})
	require.Error(t, err)

	env.gw.GetIntentFunc = func(context.Context, string) (*gateway.Intent, error) {
		return nil, gateway.ErrNotConfigured
	}
	_, err = env.payments.Verify(ctx, VerifyInput{PaymentIntentID: "pi_any"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCreateIntent_UsesServerTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	res, err := env.payments.CreateIntent(ctx, CreateIntentInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, "inr", res.Currency)
	assert.Equal(t, "pk_test_caketime", res.PublishableKey)
	assert.NotEmpty(t, res.ClientSecret)

	require.Len(t, env.gw.Created, 1)
	assert.EqualValues(t, 90000, env.gw.Created[0].Amount)
	assert.Equal(t, strconv.FormatUint(uint64(o.ID), 10), env.gw.Created[0].Metadata[gateway.MetaOrderID])

	res, err = env.payments.CreateIntent(ctx, CreateIntentInput{
		Items: []OrderItemIn{{ProductID: o.Items[1].ProductID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(300)))

	_, err = env.payments.CreateIntent(ctx, CreateIntentInput{})
	assert.ErrorIs(t, err, ErrOrderRequired)
}

func TestCreateCheckoutSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	res, err := env.payments.CreateCheckoutSession(ctx, o.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)

	require.Len(t, env.gw.Session, 1)
	params := env.gw.Session[0]
	require.Len(t, params.Items, 2)
	assert.EqualValues(t, 40000, params.Items[0].UnitPrice)
	assert.EqualValues(t, 2, params.Items[0].Quantity)
	assert.Contains(t, params.SuccessURL, "http://localhost:3000/order-success")

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, stored.Payment.SessionID)

	_, err = env.orders.Cancel(ctx, o.ID)
	require.NoError(t, err)
	_, err = env.payments.CreateCheckoutSession(ctx, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestHandleWebhook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	var next *gateway.WebhookEvent
	env.gw.ParseWebhookFunc = func(_ []byte, sig string) (*gateway.WebhookEvent, error) {
		if sig != "good" {
			return nil, gateway.ErrInvalidSignature
		}
		return next, nil
	}

	t.Run("bad signature", func(t *testing.T) {
		_, err := env.payments.HandleWebhook(ctx, []byte(`{}`), "forged")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("failed payment keeps the order pending", func(t *testing.T) {
		next = &gateway.WebhookEvent{
			ID:   "evt_failed",
			Type: gateway.EventIntentFailed,
			Intent: &gateway.Intent{ID: "pi_hook", Status: gateway.IntentRequiresPayment,
				Amount: 90000, Currency: "inr", Metadata: orderMeta(o)},
		}
		res, err := env.payments.HandleWebhook(ctx, nil, "good")
		require.NoError(t, err)
		assert.Equal(t, WebhookProcessed, res)

		stored, err := env.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderPending, stored.Status)
		assert.Equal(t, entity.PaymentFailed, stored.Payment.Status)
	})

	t.Run("succeeded payment confirms", func(t *testing.T) {
		next = &gateway.WebhookEvent{
			ID:   "evt_paid",
			Type: gateway.EventIntentSucceeded,
			Intent: &gateway.Intent{ID: "pi_hook", Status: gateway.IntentSucceeded,
				Amount: 90000, Currency: "inr", Metadata: orderMeta(o)},
		}
		res, err := env.payments.HandleWebhook(ctx, nil, "good")
		require.NoError(t, err)
		assert.Equal(t, WebhookProcessed, res)

		stored, err := env.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderConfirmed, stored.Status)
		assert.Equal(t, entity.PaymentPaid, stored.Payment.Status)
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		before := len(env.publisher.Types())
		res, err := env.payments.HandleWebhook(ctx, nil, "good")
		require.NoError(t, err)
		assert.Equal(t, WebhookDuplicate, res)
		assert.Len(t, env.publisher.Types(), before)
	})

	t.Run("unknown order is acknowledged", func(t *testing.T) {
		next = &gateway.WebhookEvent{
			ID:     "evt_orphan",
			Type:   gateway.EventIntentSucceeded,
			Intent: &gateway.Intent{ID: "pi_orphan", Status: gateway.IntentSucceeded, Amount: 100, Currency: "inr"},
		}
		res, err := env.payments.HandleWebhook(ctx, nil, "good")
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, res)
	})
}

func TestHandleWebhook_CheckoutCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := placeCakeOrder(t, env)

	env.gw.ParseWebhookFunc = func([]byte, string) (*gateway.WebhookEvent, error) {
		return &gateway.WebhookEvent{
			ID:   "evt_cs",
			Type: gateway.EventCheckoutCompleted,
			Session: &gateway.CheckoutSession{
				ID: "cs_1", PaymentStatus: "paid", IntentID: "pi_cs",
				AmountTotal: 90000, Currency: "inr", Metadata: orderMeta(o),
			},
		}, nil
	}
	res, err := env.payments.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, stored.Status)
	assert.Equal(t, "pi_cs", stored.Payment.IntentID)
}

func TestHandleWebhook_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.payments.HandleWebhook(context.Background(), nil, "")
	assert.True(t, errors.Is(err, ErrGatewayUnavailable))
}
