package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CakeType string

const (
	CakeBirthday    CakeType = "birthday"
	CakeWedding     CakeType = "wedding"
	CakeAnniversary CakeType = "anniversary"
	CakeTheme       CakeType = "theme"
	CakePhoto       CakeType = "photo"
	CakeTiered      CakeType = "tiered"
	CakeOther       CakeType = "other"
)

func (t CakeType) Valid() bool {
	switch t {
	case CakeBirthday, CakeWedding, CakeAnniversary, CakeTheme, CakePhoto, CakeTiered, CakeOther:
		return true
	}
	return false
}

type CustomOrderStatus string

const (
	CustomPending    CustomOrderStatus = "pending"
	CustomReviewing  CustomOrderStatus = "reviewing"
	CustomConfirmed  CustomOrderStatus = "confirmed"
	CustomInProgress CustomOrderStatus = "in-progress"
	CustomCompleted  CustomOrderStatus = "completed"
	CustomCancelled  CustomOrderStatus = "cancelled"
)

func (s CustomOrderStatus) Valid() bool {
	switch s {
	case CustomPending, CustomReviewing, CustomConfirmed, CustomInProgress, CustomCompleted, CustomCancelled:
		return true
	}
	return false
}

// CustomOrder is a bespoke cake request, priced by hand after review.
type CustomOrder struct {
	gorm.Model
	Customer CustomerInfo `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`

	CakeType CakeType `gorm:"size:32;not null" json:"cakeType"`
	Flavor   string   `gorm:"not null" json:"flavor"`
	Weight   string   `gorm:"size:32;not null" json:"weight"`
	Shape    string   `gorm:"size:32" json:"shape"`
	Theme    string   `json:"theme,omitempty"`
	Message  string   `json:"message,omitempty"`

	DeliveryDate   string `gorm:"size:10;not null" json:"deliveryDate"`
	DeliveryTime   string `gorm:"size:32" json:"deliveryTime"`
	ReferenceImage string `json:"referenceImage,omitempty"`

	Status         CustomOrderStatus   `gorm:"size:32;not null;default:pending;index" json:"status"`
	EstimatedPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"estimatedPrice"`
	FinalPrice     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"finalPrice"`
	AdminNotes     string              `json:"adminNotes,omitempty"`
}
