package entity

import (
	"gorm.io/gorm"
)

type Review struct {
	gorm.Model
	ProductID uint   `gorm:"not null;uniqueIndex:idx_review_product_user" json:"productId"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_review_product_user" json:"userId"`
	Rating    int    `gorm:"not null" json:"rating"`
	Comment   string `json:"comment"`
	Approved  bool   `gorm:"not null;default:false;index" json:"approved"`

	User    *User    `json:"user,omitempty"`
	Product *Product `json:"product,omitempty"`
}
