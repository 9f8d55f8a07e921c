// Package cart menyimpan keranjang per staff sebelum disubmit menjadi order.
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/pricing"
)

// Cart tidak aman dipakai bersamaan; akses lewat Store.
type Cart struct {
	items         []models.CartItem
	paymentMethod models.PaymentMethod
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(productID uint, size models.Size) int {
	for i, item := range c.items {
		if item.Product.ID == productID && item.Size == size {
			return i
		}
	}
	return -1
}

// Add menambah item; produk dan size yang sama digabung ke baris yang sudah ada.
func (c *Cart) Add(product models.Product, size models.Size, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	if size == "" {
		size = models.SizeRegular
	}

	if i := c.indexOf(product.ID, size); i >= 0 {
		c.items[i].Quantity += quantity
		return
	}
	c.items = append(c.items, models.CartItem{Product: product, Size: size, Quantity: quantity})
}

func (c *Cart) Remove(productID uint, size models.Size) {
	if i := c.indexOf(productID, size); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// UpdateQuantity mengganti jumlah; quantity <= 0 menghapus baris.
func (c *Cart) UpdateQuantity(productID uint, size models.Size, quantity int) {
	if quantity <= 0 {
		c.Remove(productID, size)
		return
	}
	if i := c.indexOf(productID, size); i >= 0 {
		c.items[i].Quantity = quantity
	}
}

// Clear mengosongkan keranjang sekaligus reset metode pembayaran.
func (c *Cart) Clear() {
	c.items = nil
	c.paymentMethod = ""
}

func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice total yang akan tersimpan di order (tanpa diskon).
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(pricing.ComputeSubtotal(item.Product, item.Size, item.Quantity))
	}
	return total
}

func (c *Cart) DisplayTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(pricing.DisplaySubtotal(item.Product, item.Size, item.Quantity))
	}
	return total
}

func (c *Cart) SetPaymentMethod(method models.PaymentMethod) {
	c.paymentMethod = method
}

func (c *Cart) PaymentMethod() models.PaymentMethod {
	return c.paymentMethod
}
