package services

import (
	"context"
	"testing"

	"caketime/entity"
	"caketime/events"
	"caketime/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_PendingAndPricedFromCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	truffle := testutil.SeedProduct(t, env.db, "Truffle Cake", "400", true)
	cupcake := testutil.SeedProduct(t, env.db, "Vanilla Cupcake", "100", true)

	in := orderInput(
		OrderItemIn{ProductID: truffle.ID, Quantity: 2, Customization: "Happy Birthday"},
		OrderItemIn{ProductID: cupcake.ID, Quantity: 1},
	)
	bogus := decimal.NewFromInt(1)
	in.Payment.Amount = &bogus

	o, created, err := env.orders.Create(ctx, in, nil, "")
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, entity.OrderPending, o.Status)
	assert.Equal(t, entity.PaymentPending, o.Payment.Status)
	assert.True(t, o.Payment.Amount.Equal(decimal.NewFromInt(900)), "amount %s", o.Payment.Amount)
	assert.Equal(t, "inr", o.Payment.Currency)
	assert.Equal(t, "asha@example.com", o.Customer.Email)
	assert.Regexp(t, `^CT-[0-9A-F]{8}$`, o.OrderNumber)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(400)))
	assert.True(t, o.Items[0].Subtotal.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, "Happy Birthday", o.Items[0].Customization)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, stored.Status)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, []string{events.OrderCreated}, env.publisher.Types())

	require.NoError(t, env.notifier.Wait(ctx))
	assert.Len(t, env.mailer.Messages(), 2, "customer confirmation and admin alert")
}

func TestCreateOrder_RejectsUnavailableProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	soldOut := testutil.SeedProduct(t, env.db, "Red Velvet", "550", false)

	_, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: soldOut.ID, Quantity: 1}), nil, "")
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, _, err = env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: 9999, Quantity: 1}), nil, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, _, err = env.orders.Create(ctx, orderInput(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyOrder)

	var count int64
	require.NoError(t, env.db.Model(&entity.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrder_IdempotencyKeyReturnsFirstOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Black Forest", "650", true)
	in := orderInput(OrderItemIn{ProductID: p.ID, Quantity: 1})

	first, created, err := env.orders.Create(ctx, in, nil, "checkout-42")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := env.orders.Create(ctx, in, nil, "checkout-42")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	var count int64
	require.NoError(t, env.db.Model(&entity.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Pineapple Cake", "450", true)
	o, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: p.ID, Quantity: 1}), nil, "")
	require.NoError(t, err)

	t.Run("value outside the enum writes nothing", func(t *testing.T) {
		_, err := env.orders.UpdateStatus(ctx, o.ID, "shipped")
		assert.ErrorIs(t, err, ErrInvalidStatus)

		stored, err := env.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderPending, stored.Status)
	})

	t.Run("moves through the lifecycle", func(t *testing.T) {
		for _, st := range []entity.OrderStatus{entity.OrderConfirmed, entity.OrderPreparing, entity.OrderOutForDelivery, entity.OrderDelivered} {
			got, err := env.orders.UpdateStatus(ctx, o.ID, string(st))
			require.NoError(t, err)
			assert.Equal(t, st, got.Status)
		}
	})

	t.Run("terminal orders cannot move", func(t *testing.T) {
		_, err := env.orders.Cancel(ctx, o.ID)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := env.orders.UpdateStatus(ctx, 424242, string(entity.OrderConfirmed))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateStatusGuard_LosesToConcurrentWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Mango Cheesecake", "700", true)
	o, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: p.ID, Quantity: 1}), nil, "")
	require.NoError(t, err)

	// someone else confirmed it after we read "pending"
	n, err := env.orders.Repo.UpdateStatusGuard(env.db, o.ID, entity.OrderPending, entity.OrderConfirmed)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = env.orders.Repo.UpdateStatusGuard(env.db, o.ID, entity.OrderPending, entity.OrderCancelled)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, stored.Status)
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Plum Cake", "300", true)
	o, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: p.ID, Quantity: 3}), nil, "")
	require.NoError(t, err)

	got, err := env.orders.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, got.Status)

	// still there, only cancelled
	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, stored.Status)
	assert.Contains(t, env.publisher.Types(), events.OrderStatusChanged)
}

func TestCustomerOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Butterscotch", "500", true)

	user := &entity.User{Name: "Asha", Email: "asha@example.com", Password: "x", Role: entity.RoleCustomer}
	require.NoError(t, env.db.Create(user).Error)
	uid := user.ID

	mine, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: p.ID, Quantity: 1}), &uid, "")
	require.NoError(t, err)
	// guest order placed with the same e-mail also belongs to her
	guest, _, err := env.orders.Create(ctx, orderInput(OrderItemIn{ProductID: p.ID, Quantity: 2}), nil, "")
	require.NoError(t, err)

	other := orderInput(OrderItemIn{ProductID: p.ID, Quantity: 1})
	other.Customer.Email = "ravi@example.com"
	theirs, _, err := env.orders.Create(ctx, other, nil, "")
	require.NoError(t, err)

	list, err := env.orders.ListForCustomer(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, guest.ID, list[0].ID, "newest first")
	assert.Equal(t, mine.ID, list[1].ID)

	_, err = env.orders.ForCustomer(ctx, theirs.ID, user)
	assert.ErrorIs(t, err, ErrNotFound)
}
