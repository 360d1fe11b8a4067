package controllers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caketime/entity"
	"caketime/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func exportOrders() []entity.Order {
	o := entity.Order{
		OrderNumber: "CT-0000CAFE",
		Customer:    entity.CustomerInfo{Name: `Rao, "Asha"`, Email: "asha@example.com", Phone: "9876543210"},
		Delivery:    entity.DeliveryInfo{City: "Bengaluru\nEast"},
		Payment:     entity.Payment{Status: entity.PaymentPaid, Amount: decimal.RequireFromString("899.5")},
		Status:      entity.OrderConfirmed,
	}
	o.CreatedAt = time.Date(2026, time.March, 1, 15, 4, 5, 0, time.UTC)
	return []entity.Order{o}
}

func TestWriteOrdersCSV_EscapesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, exportOrders()))

	assert.Contains(t, buf.String(), `"Rao, ""Asha"""`)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportColumns, records[0])
	assert.Equal(t, []string{
		"CT-0000CAFE", "2026-03-01", `Rao, "Asha"`, "asha@example.com", "9876543210",
		"899.50", "confirmed", "paid", "Bengaluru\nEast",
	}, records[1])
}

func TestWriteOrdersXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersXLSX(&buf, exportOrders()))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "orderId", rows[0].Cells[0].Value)
	assert.Equal(t, `Rao, "Asha"`, rows[1].Cells[2].Value)
	assert.Equal(t, "899.5", rows[1].Cells[5].Value)
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrStatusConflict, http.StatusConflict},
		{services.ErrGatewayUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: Red Velvet", services.ErrOutOfStock), http.StatusBadRequest},
		{services.ErrPaymentNotSucceeded, http.StatusBadRequest},
		{services.ErrInvalidPeriod, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			writeError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestDateRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	run := func(query string) (time.Time, time.Time, bool, int) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		from, to, ok := dateRange(c)
		return from, to, ok, w.Code
	}

	from, to, ok, _ := run("from=2026-03-01&to=2026-03-31")
	require.True(t, ok)
	assert.Equal(t, "2026-03-01", from.Format(time.DateOnly))
	assert.Equal(t, "2026-04-01", to.Format(time.DateOnly), "to is inclusive of the whole day")

	from, to, ok, _ = run("")
	require.True(t, ok)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	_, _, ok, code := run("from=03/01/2026")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)

	_, _, ok, code = run("from=2026-03-10&to=2026-03-01")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
}
