package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/pricing"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/utils"
)

type MenuController struct {
	products *repository.ProductRepository
	log      *logrus.Logger
}

func NewMenuController(products *repository.ProductRepository, logger *logrus.Logger) *MenuController {
	return &MenuController{products: products, log: logger}
}

type menuItem struct {
	ID                uint             `json:"id"`
	CategoryID        uint             `json:"category_id"`
	Category          string           `json:"category"`
	Name              string           `json:"name"`
	Description       *string          `json:"description,omitempty"`
	ImageURL          *string          `json:"image_url,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	PriceLarge        *decimal.Decimal `json:"price_large,omitempty"`
	DiscountPercent   *decimal.Decimal `json:"discount_percent,omitempty"`
	DisplayPrice      decimal.Decimal  `json:"display_price"`
	DisplayPriceLarge *decimal.Decimal `json:"display_price_large,omitempty"`
	PriceLabel        string           `json:"price_label"`
}

func toMenuItem(p models.Product) menuItem {
	item := menuItem{
		ID:              p.ID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Description:     p.Description,
		ImageURL:        p.ImageURL,
		Price:           p.Price,
		PriceLarge:      p.PriceLarge,
		DiscountPercent: p.DiscountPercent,
		DisplayPrice:    pricing.DisplayUnitPrice(p, models.SizeRegular),
	}
	if p.Category != nil {
		item.Category = p.Category.Name
	}
	if p.HasLargeSize() {
		large := pricing.DisplayUnitPrice(p, models.SizeLarge)
		item.DisplayPriceLarge = &large
	}
	item.PriceLabel = utils.FormatCurrencyIDR(item.DisplayPrice)
	return item
}

// GetMenu -> daftar produk + kategori untuk terminal kasir
func (mc *MenuController) GetMenu(c *gin.Context) {
	ctx := c.Request.Context()

	products, err := mc.products.ListProducts(ctx)
	if err != nil {
		respondAppError(c, mc.log, err)
		return
	}
	categories, err := mc.products.ListCategories(ctx)
	if err != nil {
		respondAppError(c, mc.log, err)
		return
	}

	items := make([]menuItem, 0, len(products))
	for _, p := range products {
		items = append(items, toMenuItem(p))
	}

	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"products":   items,
		"categories": categories,
	})
}
