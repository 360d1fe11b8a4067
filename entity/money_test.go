package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.EqualValues(t, 90000, ToMinor(decimal.NewFromInt(900), "inr"))
	assert.EqualValues(t, 89950, ToMinor(decimal.RequireFromString("899.5"), "INR"))
	assert.EqualValues(t, 1000, ToMinor(decimal.NewFromInt(1000), "jpy"))
	assert.EqualValues(t, 1, ToMinor(decimal.RequireFromString("0.005"), "usd"), "rounds half up")

	assert.True(t, FromMinor(90000, "inr").Equal(decimal.NewFromInt(900)))
	assert.True(t, FromMinor(1000, "jpy").Equal(decimal.NewFromInt(1000)))
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderOutForDelivery.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.True(t, OrderDelivered.IsTerminal())
	assert.True(t, OrderCancelled.IsTerminal())
	assert.False(t, OrderPreparing.IsTerminal())
}
