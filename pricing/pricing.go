// Package pricing menentukan harga satuan dan subtotal item berdasarkan ukuran.
//
// Subtotal yang disimpan ke order selalu memakai ComputeSubtotal (tanpa diskon).
// DiscountPercent hanya dipakai untuk tampilan lewat DisplayUnitPrice / DisplaySubtotal.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/kasir-app/models"
)

var hundred = decimal.NewFromInt(100)

// ResolveUnitPrice mengembalikan harga large kalau size large dan produk punya harga large,
// selain itu harga dasar. Large tanpa harga large turun diam-diam ke harga dasar.
func ResolveUnitPrice(product models.Product, size models.Size) decimal.Decimal {
	if size == models.SizeLarge && product.PriceLarge != nil {
		return *product.PriceLarge
	}
	return product.Price
}

func ComputeSubtotal(product models.Product, size models.Size, quantity int) decimal.Decimal {
	return ResolveUnitPrice(product, size).Mul(decimal.NewFromInt(int64(quantity)))
}

// DisplayUnitPrice harga satuan setelah diskon, dibulatkan 2 desimal.
func DisplayUnitPrice(product models.Product, size models.Size) decimal.Decimal {
	price := ResolveUnitPrice(product, size)
	if product.DiscountPercent == nil {
		return price
	}

	pct := *product.DiscountPercent
	if pct.LessThanOrEqual(decimal.Zero) {
		return price
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

func DisplaySubtotal(product models.Product, size models.Size, quantity int) decimal.Decimal {
	return DisplayUnitPrice(product, size).Mul(decimal.NewFromInt(int64(quantity)))
}

// ParseSize menerima "regular" / "large" (case-insensitive); string kosong dianggap regular.
func ParseSize(raw string) (models.Size, error) {
	switch models.Size(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.SizeRegular:
		return models.SizeRegular, nil
	case models.SizeLarge:
		return models.SizeLarge, nil
	default:
		return "", fmt.Errorf("unknown size %q", raw)
	}
}
