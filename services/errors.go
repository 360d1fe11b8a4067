package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrStatusConflict      = errors.New("order status changed concurrently or is final")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidCakeType     = errors.New("invalid cake type")
	ErrProductUnavailable  = errors.New("product not found")
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrAmountMismatch      = errors.New("charged amount does not match order total")
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrOrderNotPayable     = errors.New("order is not awaiting payment")
	ErrOrderRequired       = errors.New("orderId or order is required")
	ErrAlreadyReviewed     = errors.New("you have already reviewed this product")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrGatewayUnavailable  = errors.New("payment gateway is not configured")
)
