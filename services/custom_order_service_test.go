package services

import (
	"context"
	"testing"

	"caketime/entity"
	"caketime/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customInput() CustomOrderInput {
	return CustomOrderInput{
		Customer:     CustomerIn{Name: "Meera", Email: "Meera@Example.com", Phone: "9000000001"},
		CakeType:     "wedding",
		Flavor:       "red velvet",
		Weight:       "3kg",
		Shape:        "round",
		Theme:        "pastel floral",
		Message:      "M & A",
		DeliveryDate: "2030-02-14",
	}
}

func TestCustomOrder_CreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	co, err := env.custom.Create(ctx, customInput())
	require.NoError(t, err)
	assert.Equal(t, entity.CustomPending, co.Status)
	assert.Equal(t, "meera@example.com", co.Customer.Email)
	assert.False(t, co.EstimatedPrice.Valid)

	require.NoError(t, env.notifier.Wait(ctx))
	assert.Len(t, env.mailer.Messages(), 2)

	estimate := decimal.RequireFromString("4999.999")
	notes := "needs a tasting call"
	got, err := env.custom.Update(ctx, co.ID, CustomOrderUpdate{EstimatedPrice: &estimate, AdminNotes: &notes})
	require.NoError(t, err)
	assert.True(t, got.EstimatedPrice.Decimal.Equal(decimal.NewFromInt(5000)))
	require.NoError(t, env.notifier.Wait(ctx))
	assert.Len(t, env.mailer.Messages(), 2, "price edits do not mail the customer")

	status := string(entity.CustomConfirmed)
	got, err = env.custom.Update(ctx, co.ID, CustomOrderUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, entity.CustomConfirmed, got.Status)
	assert.Equal(t, "needs a tasting call", got.AdminNotes)
	require.NoError(t, env.notifier.Wait(ctx))
	assert.Len(t, env.mailer.Messages(), 3)

	assert.Equal(t, []string{events.CustomOrderCreated, events.CustomOrderUpdated, events.CustomOrderUpdated},
		env.publisher.Types())
}

func TestCustomOrder_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := customInput()
	in.CakeType = "spaceship"
	_, err := env.custom.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidCakeType)

	co, err := env.custom.Create(ctx, customInput())
	require.NoError(t, err)

	bad := "baking"
	_, err = env.custom.Update(ctx, co.ID, CustomOrderUpdate{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	negative := decimal.NewFromInt(-1)
	_, err = env.custom.Update(ctx, co.ID, CustomOrderUpdate{FinalPrice: &negative})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.custom.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomOrder_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.custom.Create(ctx, customInput())
	require.NoError(t, err)
	other := customInput()
	other.Customer.Name = "Kabir"
	other.Customer.Email = "kabir@example.com"
	_, err = env.custom.Create(ctx, other)
	require.NoError(t, err)

	status := string(entity.CustomReviewing)
	_, err = env.custom.Update(ctx, first.ID, CustomOrderUpdate{Status: &status})
	require.NoError(t, err)

	page, err := env.custom.List(ctx, status, "", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, first.ID, page.Items[0].ID)

	page, err = env.custom.List(ctx, "", "kabir", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Kabir", page.Items[0].Customer.Name)
}
