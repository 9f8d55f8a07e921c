package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/utils"
)

type AdminController struct {
	orders *repository.OrderRepository
	staff  *repository.StaffRepository
	log    *logrus.Logger
}

func NewAdminController(orders *repository.OrderRepository, staff *repository.StaffRepository, logger *logrus.Logger) *AdminController {
	return &AdminController{orders: orders, staff: staff, log: logger}
}

// historyRow order plus nama staff pembuatnya (kosong kalau staff sudah tidak ada)
type historyRow struct {
	models.Order
	StaffName string `json:"staff_name"`
}

// GetDashboardSummary -> pendapatan (order completed) dan jumlah order
func (ac *AdminController) GetDashboardSummary(c *gin.Context) {
	summary, err := ac.orders.Summary(c.Request.Context())
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard summary", gin.H{
		"revenue":        summary.Revenue,
		"revenue_label":  utils.FormatCurrencyIDR(summary.Revenue),
		"total_orders":   summary.TotalOrders,
		"pending_orders": summary.PendingOrders,
	})
}

// GetOrderHistory -> ?status=&created_by=&from=YYYY-MM-DD&to=YYYY-MM-DD&limit=
func (ac *AdminController) GetOrderHistory(c *gin.Context) {
	filter := repository.OrderFilter{
		Status:    models.OrderStatus(c.Query("status")),
		CreatedBy: c.Query("created_by"),
	}

	var details []apperrors.ValidationDetail
	switch filter.Status {
	case "", models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		details = append(details, apperrors.ValidationDetail{Field: "status", Message: "unknown status"})
	}
	filter.From, filter.To = parseDateRange(c, &details)
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			details = append(details, apperrors.ValidationDetail{Field: "limit", Message: "must be a positive number"})
		} else {
			filter.Limit = limit
		}
	}
	if len(details) > 0 {
		respondAppError(c, ac.log, apperrors.NewValidationError("invalid history filter", details...))
		return
	}

	orders, err := ac.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}

	refs := make([]string, 0, len(orders))
	for _, o := range orders {
		refs = append(refs, o.CreatedBy)
	}
	names, err := ac.staff.NamesByRef(c.Request.Context(), refs)
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}

	rows := make([]historyRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, historyRow{Order: o, StaffName: names[o.CreatedBy]})
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", rows)
}

// ListStaff -> semua staff, urut nama
func (ac *AdminController) ListStaff(c *gin.Context) {
	staff, err := ac.staff.List(c.Request.Context())
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Staff list", staff)
}

// GetStaffSales -> /admin/staff/:ref/sales?from=YYYY-MM-DD&to=YYYY-MM-DD
func (ac *AdminController) GetStaffSales(c *gin.Context) {
	ctx := c.Request.Context()
	staff, err := ac.staff.FindByRef(ctx, c.Param("ref"))
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}

	var details []apperrors.ValidationDetail
	from, to := parseDateRange(c, &details)
	if len(details) > 0 {
		respondAppError(c, ac.log, apperrors.NewValidationError("invalid sales range", details...))
		return
	}

	sales, err := ac.orders.StaffSales(ctx, staff.Ref, from, to)
	if err != nil {
		respondAppError(c, ac.log, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Staff sales", gin.H{
		"staff":            staff,
		"revenue":          sales.Revenue,
		"revenue_label":    utils.FormatCurrencyIDR(sales.Revenue),
		"completed_orders": sales.CompletedOrders,
		"total_orders":     sales.TotalOrders,
		"lines":            sales.Lines,
	})
}

// parseDateRange membaca ?from= dan ?to= (YYYY-MM-DD, waktu lokal). to inklusif sampai akhir hari.
func parseDateRange(c *gin.Context, details *[]apperrors.ValidationDetail) (from, to *time.Time) {
	if raw := c.Query("from"); raw != "" {
		start, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			*details = append(*details, apperrors.ValidationDetail{Field: "from", Message: "expected YYYY-MM-DD"})
		} else {
			from = &start
		}
	}
	if raw := c.Query("to"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			*details = append(*details, apperrors.ValidationDetail{Field: "to", Message: "expected YYYY-MM-DD"})
		} else {
			end := day.AddDate(0, 0, 1)
			to = &end
		}
	}
	return from, to
}
