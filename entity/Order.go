package entity

import (
	"gorm.io/gorm"
)

// CustomerInfo is a snapshot taken at order time, not a reference to User.
type CustomerInfo struct {
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null;index" json:"email"`
	Phone string `gorm:"not null" json:"phone"`
}

type DeliveryInfo struct {
	Address string `gorm:"not null" json:"address"`
	City    string `gorm:"not null" json:"city"`
	Pincode string `gorm:"size:16;not null" json:"pincode"`
	Date    string `gorm:"size:10;not null" json:"date"` // YYYY-MM-DD
	Time    string `gorm:"size:32" json:"time"`
}

type Order struct {
	gorm.Model
	OrderNumber string `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`

	Customer CustomerInfo `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Items    []OrderItem  `json:"items"`
	Delivery DeliveryInfo `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`
	Payment  Payment      `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Status OrderStatus `gorm:"size:32;not null;default:pending;index" json:"status"`
	Notes  string      `json:"notes"`

	UserID *uint `gorm:"index" json:"userId,omitempty"`
	User   *User `json:"-"`

	IdempotencyKey *string `gorm:"size:128;uniqueIndex" json:"-"`
}
