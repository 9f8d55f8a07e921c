package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/cart"
	"github.com/yeremiapane/kasir-app/controllers"
	"github.com/yeremiapane/kasir-app/middlewares"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/queue"
	"github.com/yeremiapane/kasir-app/realtime"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/services"
	"github.com/yeremiapane/kasir-app/utils"
)

// Dependencies semua komponen yang dibutuhkan handler, dirakit di main.
type Dependencies struct {
	Products   *repository.ProductRepository
	Staff      *repository.StaffRepository
	Orders     *repository.OrderRepository
	Service    *services.OrderService
	Carts      *cart.Store
	Queue      *queue.ViewModel
	Hub        *realtime.Hub
	Tokens     *utils.TokenManager
	Logger     *logrus.Logger
	CORSOrigin string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware(deps.Logger))
	r.Use(middlewares.NewRateLimiter(120, time.Minute).RateLimit())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(deps.Staff, deps.Tokens, deps.Logger)
	menuCtrl := controllers.NewMenuController(deps.Products, deps.Logger)
	cartCtrl := controllers.NewCartController(deps.Carts, deps.Products, deps.Service, deps.Logger)
	orderCtrl := controllers.NewOrderController(deps.Service, deps.Orders, deps.Logger)
	queueCtrl := controllers.NewQueueController(deps.Queue, deps.Orders, deps.Logger)
	adminCtrl := controllers.NewAdminController(deps.Orders, deps.Staff, deps.Logger)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Rate limiter ketat untuk login
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter(6*time.Second, 10).Handler())
	{
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/menu", menuCtrl.GetMenu)

	// ----------------------------------------------------------------
	//                      WEBSOCKET (token di query)
	// ----------------------------------------------------------------
	r.GET("/ws/queue", middlewares.WebSocketAuthMiddleware(deps.Tokens), queueCtrl.StreamQueue)
	r.GET("/realtime/ws", middlewares.RelayAuthMiddleware(deps.Tokens), controllers.RelayHandler(deps.Hub))

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(deps.Tokens))

	// CART (per staff)
	auth.GET("/cart", cartCtrl.GetCart)
	auth.POST("/cart/items", cartCtrl.AddItem)
	auth.PATCH("/cart/items", cartCtrl.UpdateItem)
	auth.DELETE("/cart/items/:product_id", cartCtrl.RemoveItem)
	auth.DELETE("/cart", cartCtrl.ClearCart)
	auth.PUT("/cart/payment-method", cartCtrl.SetPaymentMethod)
	auth.POST("/cart/checkout", cartCtrl.Checkout)

	// ORDERS
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders/pending", orderCtrl.GetPendingOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PUT("/orders/:order_id", orderCtrl.UpdateOrder)
	auth.POST("/orders/:order_id/complete", orderCtrl.CompleteOrder)
	auth.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
	auth.DELETE("/orders/:order_id", middlewares.RequireRole(models.RoleAdmin), orderCtrl.DeleteOrder)

	// QUEUE
	auth.GET("/queue", queueCtrl.GetQueue)

	// ADMIN
	admin := auth.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/dashboard/summary", adminCtrl.GetDashboardSummary)
		admin.GET("/orders", adminCtrl.GetOrderHistory)
		admin.GET("/staff", adminCtrl.ListStaff)
		admin.GET("/staff/:ref/sales", adminCtrl.GetStaffSales)
	}

	return r
}
