package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem snapshots the product as it was sold.
type OrderItem struct {
	gorm.Model
	OrderID uint `gorm:"index;not null" json:"-"`

	ProductID     uint            `gorm:"index;not null" json:"productId"`
	Name          string          `gorm:"not null" json:"name"`
	Category      Category        `gorm:"size:32" json:"category"`
	Image         string          `json:"image,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Customization string          `json:"customization,omitempty"`
}
