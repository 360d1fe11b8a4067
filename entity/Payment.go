package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is embedded in Order with the payment_ column prefix.
type Payment struct {
	Method    PaymentMethod   `gorm:"size:16;not null;default:card" json:"method"`
	Status    PaymentStatus   `gorm:"size:16;not null;default:pending;index" json:"status"`
	IntentID  string          `gorm:"size:128;index" json:"intentId,omitempty"`
	SessionID string          `gorm:"size:128" json:"sessionId,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency  string          `gorm:"size:8;not null" json:"currency"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}
