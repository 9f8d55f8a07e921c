package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/cart"
	"github.com/yeremiapane/kasir-app/middlewares"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/pricing"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/services"
	"github.com/yeremiapane/kasir-app/utils"
)

// CartController keranjang per staff; pemilik diambil dari token.
type CartController struct {
	carts    *cart.Store
	products *repository.ProductRepository
	orders   *services.OrderService
	log      *logrus.Logger
}

func NewCartController(carts *cart.Store, products *repository.ProductRepository, orders *services.OrderService, logger *logrus.Logger) *CartController {
	return &CartController{carts: carts, products: products, orders: orders, log: logger}
}

type cartLineRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func parseSize(raw string) (models.Size, error) {
	size, err := pricing.ParseSize(raw)
	if err != nil {
		return "", apperrors.NewValidationError("invalid size",
			apperrors.ValidationDetail{Field: "size", Message: err.Error()})
	}
	return size, nil
}

func (cc *CartController) GetCart(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Cart", cc.carts.Snapshot(middlewares.StaffRef(c)))
}

// AddItem -> tambah produk; baris yang sama (produk+ukuran) digabung
func (cc *CartController) AddItem(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	size, err := parseSize(req.Size)
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}

	product, err := cc.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}

	snapshot, err := cc.carts.Update(middlewares.StaffRef(c), func(ct *cart.Cart) {
		ct.Add(*product, size, req.Quantity)
	})
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart", snapshot)
}

// UpdateItem -> set quantity; quantity <= 0 menghapus baris
func (cc *CartController) UpdateItem(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	size, err := parseSize(req.Size)
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}

	snapshot, err := cc.carts.Update(middlewares.StaffRef(c), func(ct *cart.Cart) {
		ct.UpdateQuantity(req.ProductID, size, req.Quantity)
	})
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", snapshot)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		respondAppError(c, cc.log, apperrors.NewValidationError("invalid product id"))
		return
	}
	size, err := parseSize(c.Query("size"))
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}

	snapshot, err := cc.carts.Update(middlewares.StaffRef(c), func(ct *cart.Cart) {
		ct.Remove(uint(productID), size)
	})
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from cart", snapshot)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	snapshot, err := cc.carts.Update(middlewares.StaffRef(c), func(ct *cart.Cart) {
		ct.Clear()
	})
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", snapshot)
}

func (cc *CartController) SetPaymentMethod(c *gin.Context) {
	var req struct {
		PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !req.PaymentMethod.Valid() {
		respondAppError(c, cc.log, apperrors.NewValidationError("invalid payment method",
			apperrors.ValidationDetail{Field: "payment_method", Message: "must be cash or qris"}))
		return
	}

	snapshot, err := cc.carts.Update(middlewares.StaffRef(c), func(ct *cart.Cart) {
		ct.SetPaymentMethod(req.PaymentMethod)
	})
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment method set", snapshot)
}

// Checkout -> keranjang jadi order pending; keranjang dikosongkan kalau berhasil
func (cc *CartController) Checkout(c *gin.Context) {
	var req struct {
		CustomerName string `json:"customer_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := cc.orders.Checkout(c.Request.Context(), cc.carts, middlewares.StaffRef(c), req.CustomerName)
	if err != nil {
		respondAppError(c, cc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}
