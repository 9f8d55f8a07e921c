package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/middlewares"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/services"
	"github.com/yeremiapane/kasir-app/utils"
)

type OrderController struct {
	service *services.OrderService
	orders  *repository.OrderRepository
	log     *logrus.Logger
}

func NewOrderController(service *services.OrderService, orders *repository.OrderRepository, logger *logrus.Logger) *OrderController {
	return &OrderController{service: service, orders: orders, log: logger}
}

// CreateOrder -> submit langsung tanpa keranjang server
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		CustomerName  string                `json:"customer_name"`
		PaymentMethod models.PaymentMethod  `json:"payment_method"`
		Items         []repository.ItemSpec `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.SubmitItems(c.Request.Context(), body.Items, body.CustomerName, body.PaymentMethod, middlewares.StaffRef(c))
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetPendingOrders -> antrian, paling lama dulu
func (oc *OrderController) GetPendingOrders(c *gin.Context) {
	orders, err := oc.orders.ListPending(c.Request.Context())
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := oc.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder -> ganti seluruh item order pending. version opsional untuk deteksi edit basi.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var body struct {
		Items         []repository.ItemSpec `json:"items"`
		CustomerName  *string               `json:"customer_name"`
		PaymentMethod *models.PaymentMethod `json:"payment_method"`
		Version       *int                  `json:"version"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.EditOrder(c.Request.Context(), id, body.Items, repository.ReplaceOptions{
		CustomerName:    body.CustomerName,
		PaymentMethod:   body.PaymentMethod,
		ExpectedVersion: body.Version,
	})
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

func (oc *OrderController) CompleteOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := oc.service.CompleteOrder(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order completed", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := oc.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	if err := oc.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondAppError(c, oc.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{"order_id": id})
}
