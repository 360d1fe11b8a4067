package controllers

import (
	"io"
	"net/http"

	"caketime/pkg/resp"
	"caketime/services"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

// webhook bodies are small JSON documents
const maxWebhookBody = 1 << 16

type PaymentController struct {
	payments *services.PaymentService
	orders   *services.OrderService
}

func NewPaymentController(payments *services.PaymentService, orders *services.OrderService) *PaymentController {
	return &PaymentController{payments: payments, orders: orders}
}

type CheckoutSessionRequest struct {
	OrderID uint `json:"orderId" binding:"required"`
}

// POST /payment/create-intent
func (pc *PaymentController) CreateIntent(c *gin.Context) {
	var req services.CreateIntentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	out, err := pc.payments.CreateIntent(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, out)
}

// POST /payment/create-checkout-session
func (pc *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	out, err := pc.payments.CreateCheckoutSession(c.Request.Context(), req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, out)
}

// POST /payment/verify
func (pc *PaymentController) Verify(c *gin.Context) {
	var req services.VerifyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	o, err := pc.payments.Verify(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, o)
}

// GET /payment/status/:intentId
func (pc *PaymentController) Status(c *gin.Context) {
	out, err := pc.payments.Status(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, out)
}

// POST /payment/webhook
// The raw body is needed for the signature check, so nothing may bind it first.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		resp.BadRequest(c, "cannot read body")
		return
	}
	result, err := pc.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "result": result})
}

// GET /payment/orders/:id
func (pc *PaymentController) MyOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := pc.orders.ForCustomer(c.Request.Context(), id, utils.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, o)
}

// GET /payment/orders
func (pc *PaymentController) MyOrders(c *gin.Context) {
	list, err := pc.orders.ListForCustomer(c.Request.Context(), utils.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, list)
}
