package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryCakes    Category = "cakes"
	CategoryCupcakes Category = "cupcakes"
	CategoryPastries Category = "pastries"
	CategoryCookies  Category = "cookies"
	CategoryBreads   Category = "breads"
	CategoryDesserts Category = "desserts"
	CategoryCustom   Category = "custom"
)

var Categories = []Category{
	CategoryCakes, CategoryCupcakes, CategoryPastries, CategoryCookies,
	CategoryBreads, CategoryDesserts, CategoryCustom,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Product struct {
	gorm.Model
	Name        string          `gorm:"not null;index" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    Category        `gorm:"size:32;index;not null" json:"category"`
	Flavor      string          `gorm:"size:64;index" json:"flavor"`
	Occasion    string          `gorm:"size:64;index" json:"occasion"`
	Images      []string        `gorm:"serializer:json;type:text" json:"images"`
	Tags        []string        `gorm:"serializer:json;type:text" json:"tags"`
	Eggless     bool            `gorm:"not null;default:false" json:"eggless"`
	InStock     bool            `gorm:"not null" json:"inStock"`
	Featured    bool            `gorm:"not null;default:false;index" json:"featured"`

	// denormalised from approved reviews
	Rating      decimal.Decimal `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	ReviewCount int64           `gorm:"not null;default:0" json:"reviewCount"`

	Reviews []Review `json:"reviews,omitempty"`
}

// PrimaryImage is the first image, used as the line-item snapshot.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
