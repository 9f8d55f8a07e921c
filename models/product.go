package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Size adalah varian ukuran item (regular / large)
type Size string

const (
	SizeRegular Size = "regular"
	SizeLarge   Size = "large"
)

func (s Size) Valid() bool {
	return s == SizeRegular || s == SizeLarge
}

type Product struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	CategoryID      uint             `gorm:"not null;index" json:"category_id"`
	Category        *Category        `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	Description     *string          `gorm:"type:text" json:"description,omitempty"`
	ImageURL        *string          `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Price           decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	PriceLarge      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price_large,omitempty"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent,omitempty"`
	CreatedAt       time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null" json:"updated_at"`
}

// HasLargeSize true kalau produk punya harga ukuran large
func (p Product) HasLargeSize() bool {
	return p.PriceLarge != nil
}
