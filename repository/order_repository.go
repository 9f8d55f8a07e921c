package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemSpec item baru untuk edit order; harga diambil ulang dari data produk terkini.
type ItemSpec struct {
	ProductID uint        `json:"product_id"`
	Size      models.Size `json:"size"`
	Quantity  int         `json:"quantity"`
}

// ReplaceOptions field header yang boleh ikut diubah saat edit. Nil berarti tidak diubah.
type ReplaceOptions struct {
	CustomerName    *string
	PaymentMethod   *models.PaymentMethod
	ExpectedVersion *int
}

type OrderFilter struct {
	Status    models.OrderStatus
	CreatedBy string
	From      *time.Time
	To        *time.Time
	Limit     int
}

type Summary struct {
	Revenue       decimal.Decimal `json:"revenue"`
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
}

type SalesLine struct {
	SaleDate     string          `json:"sale_date"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type StaffSales struct {
	Revenue         decimal.Decimal `json:"revenue"`
	CompletedOrders int64           `json:"completed_orders"`
	TotalOrders     int64           `json:"total_orders"`
	Lines           []SalesLine     `json:"lines"`
}

type OrderRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewOrderRepository(db *gorm.DB, logger *logrus.Logger) *OrderRepository {
	return &OrderRepository{db: db, log: logger}
}

// CreateOrder menyimpan order dalam dua tahap: header lalu item.
// Kalau insert item gagal, order dihapus lagi (kompensasi) dan error insert item
// tetap menjadi penyebab utama yang dikembalikan.
func (r *OrderRepository) CreateOrder(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
	customerName = strings.TrimSpace(customerName)
	if err := validateCreate(items, customerName, method); err != nil {
		return nil, err
	}

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		size, _ := pricing.ParseSize(string(item.Size))
		subtotal := pricing.ComputeSubtotal(item.Product, size, item.Quantity)
		total = total.Add(subtotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.Product.ID,
			Size:      size,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
	}

	order := &models.Order{
		CustomerName:  customerName,
		Status:        models.OrderStatusPending,
		PaymentMethod: method,
		CreatedBy:     createdBy,
		TotalAmount:   total,
		Version:       1,
	}

	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		r.log.WithError(err).Error("Failed to insert order")
		return nil, apperrors.NewStoreError("insert order", err)
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := db.Omit(clause.Associations).Create(&orderItems).Error; err != nil {
		r.log.WithError(err).WithField("order_id", order.ID).Error("Failed to insert order items, compensating")

		storeErr := apperrors.NewStoreError("insert order items", err)
		if cErr := r.compensateCreate(ctx, order.ID); cErr != nil {
			storeErr.Compensation = cErr
			r.log.WithError(cErr).WithField("order_id", order.ID).
				Error("CRITICAL: failed to remove partially created order. Manual cleanup required")
		}
		return nil, storeErr
	}

	for i := range orderItems {
		product := items[i].Product
		orderItems[i].Product = &product
	}
	order.Items = orderItems

	r.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"items":    len(orderItems),
		"total":    total.String(),
	}).Info("Order created")
	return order, nil
}

// compensateCreate tetap jalan walaupun ctx request sudah dibatalkan.
func (r *OrderRepository) compensateCreate(ctx context.Context, orderID uint) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	db := r.db.WithContext(cctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("delete items of order %d: %w", orderID, err)
	}
	if err := db.Delete(&models.Order{}, orderID).Error; err != nil {
		return fmt.Errorf("delete order %d: %w", orderID, err)
	}
	return nil
}

// ReplaceOrderItems mengganti seluruh item order pending dalam satu transaksi:
// header, hapus item lama, harga ulang dari produk terkini, insert item baru,
// lalu total dan version. Gagal di langkah mana pun berarti tidak ada yang berubah.
func (r *OrderRepository) ReplaceOrderItems(ctx context.Context, orderID uint, specs []ItemSpec, opts ReplaceOptions) (*models.Order, error) {
	if err := validateReplace(specs, opts); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", orderID))
			}
			return apperrors.NewStoreError("load order", err)
		}
		if !order.IsPending() {
			return apperrors.NewInvalidTransitionError(order.ID, string(order.Status), "")
		}
		if opts.ExpectedVersion != nil && *opts.ExpectedVersion != order.Version {
			return apperrors.NewConflictError(fmt.Sprintf("order %d was modified (version %d, expected %d)",
				order.ID, order.Version, *opts.ExpectedVersion))
		}

		header := map[string]interface{}{}
		if opts.CustomerName != nil {
			header["customer_name"] = strings.TrimSpace(*opts.CustomerName)
		}
		if opts.PaymentMethod != nil {
			header["payment_method"] = *opts.PaymentMethod
		}
		if len(header) > 0 {
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(header).Error; err != nil {
				return apperrors.NewStoreError("update order header", err)
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return apperrors.NewStoreError("delete order items", err)
		}

		products, err := findProducts(tx, distinctProductIDs(specs))
		if err != nil {
			return err
		}

		total := decimal.Zero
		newItems := make([]models.OrderItem, 0, len(specs))
		var missing []apperrors.ValidationDetail
		for i, spec := range specs {
			product, ok := products[spec.ProductID]
			if !ok {
				missing = append(missing, apperrors.ValidationDetail{
					Field:   fmt.Sprintf("items[%d].product_id", i),
					Message: fmt.Sprintf("product %d does not exist", spec.ProductID),
				})
				continue
			}
			size, _ := pricing.ParseSize(string(spec.Size))
			subtotal := pricing.ComputeSubtotal(product, size, spec.Quantity)
			total = total.Add(subtotal)
			newItems = append(newItems, models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Size:      size,
				Quantity:  spec.Quantity,
				Subtotal:  subtotal,
			})
		}
		if len(missing) > 0 {
			return apperrors.NewValidationError("unknown products in order items", missing...)
		}

		if err := tx.Omit(clause.Associations).Create(&newItems).Error; err != nil {
			return apperrors.NewStoreError("insert order items", err)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]interface{}{
				"total_amount": total,
				"version":      order.Version + 1,
			})
		if res.Error != nil {
			return apperrors.NewStoreError("update order total", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NewConflictError(fmt.Sprintf("order %d was modified concurrently", order.ID))
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("order_id", orderID).Warn("Order edit rolled back")
		return nil, err
	}

	r.log.WithField("order_id", orderID).Info("Order items replaced")
	return r.GetOrder(ctx, orderID)
}

// TransitionStatus memindahkan order pending ke completed / cancelled.
// Order yang sudah terminal ditolak dengan InvalidTransitionError.
func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID uint, status models.OrderStatus) error {
	if !status.IsTerminal() {
		return apperrors.NewValidationError("invalid target status",
			apperrors.ValidationDetail{Field: "status", Message: "must be completed or cancelled"})
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		UpdateColumn("status", status)
	if res.Error != nil {
		return apperrors.NewStoreError("update order status", res.Error)
	}

	if res.RowsAffected == 0 {
		var current models.Order
		if err := db.Select("id", "status").First(&current, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", orderID))
			}
			return apperrors.NewStoreError("load order", err)
		}
		return apperrors.NewInvalidTransitionError(orderID, string(current.Status), string(status))
	}

	r.log.WithFields(logrus.Fields{"order_id": orderID, "status": status}).Info("Order status updated")
	return nil
}

// DeleteOrder menghapus item lalu order-nya. Kalau hapus item gagal, order tidak disentuh.
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", orderID))
			}
			return apperrors.NewStoreError("load order", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return apperrors.NewStoreError("delete order items", err)
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return apperrors.NewStoreError("delete order", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.WithField("order_id", orderID).Info("Order deleted")
	return nil
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", orderID))
		}
		return nil, apperrors.NewStoreError("get order", err)
	}
	return &order, nil
}

// ListPending order pending, paling lama dulu.
func (r *OrderRepository) ListPending(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("status = ?", models.OrderStatusPending).
		Order("created_at ASC").Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.NewStoreError("list pending orders", err)
	}
	return orders, nil
}

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

// applyOrderFilter kolom diberi prefix tabel supaya aman dipakai di query join.
func applyOrderFilter(query *gorm.DB, filter OrderFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("orders.status = ?", filter.Status)
	}
	if filter.CreatedBy != "" {
		query = query.Where("orders.created_by = ?", filter.CreatedBy)
	}
	if filter.From != nil {
		query = query.Where("orders.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("orders.created_at < ?", *filter.To)
	}
	return query
}

// ListOrders riwayat order, terbaru dulu. Limit kosong = 100, maksimal 500.
func (r *OrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	var orders []models.Order
	err := applyOrderFilter(withItems(r.db.WithContext(ctx)), filter).
		Order("orders.created_at DESC").Order("orders.id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.NewStoreError("list orders", err)
	}
	return orders, nil
}

// Summary: revenue hanya dari order completed, total order dihitung semua status.
func (r *OrderRepository) Summary(ctx context.Context) (*Summary, error) {
	db := r.db.WithContext(ctx)
	summary := &Summary{Revenue: decimal.Zero}

	row := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&summary.Revenue); err != nil {
		return nil, apperrors.NewStoreError("sum revenue", err)
	}

	if err := db.Model(&models.Order{}).Count(&summary.TotalOrders).Error; err != nil {
		return nil, apperrors.NewStoreError("count orders", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&summary.PendingOrders).Error; err != nil {
		return nil, apperrors.NewStoreError("count pending orders", err)
	}
	return summary, nil
}

// StaffSales laporan penjualan satu staff dalam rentang waktu.
// Revenue dan Lines hanya dari order completed; TotalOrders menghitung semua status.
func (r *OrderRepository) StaffSales(ctx context.Context, staffRef string, from, to *time.Time) (*StaffSales, error) {
	db := r.db.WithContext(ctx)
	all := OrderFilter{CreatedBy: staffRef, From: from, To: to}
	completed := all
	completed.Status = models.OrderStatusCompleted

	sales := &StaffSales{Revenue: decimal.Zero, Lines: []SalesLine{}}

	revenue := applyOrderFilter(db.Model(&models.Order{}), completed).
		Select("COALESCE(SUM(orders.total_amount), 0)").
		Row()
	if err := revenue.Scan(&sales.Revenue); err != nil {
		return nil, apperrors.NewStoreError("sum staff revenue", err)
	}
	if err := applyOrderFilter(db.Model(&models.Order{}), completed).Count(&sales.CompletedOrders).Error; err != nil {
		return nil, apperrors.NewStoreError("count staff completed orders", err)
	}
	if err := applyOrderFilter(db.Model(&models.Order{}), all).Count(&sales.TotalOrders).Error; err != nil {
		return nil, apperrors.NewStoreError("count staff orders", err)
	}

	var rows []struct {
		CreatedAt time.Time
		ProductID uint
		Quantity  int
		Subtotal  decimal.Decimal
	}
	err := applyOrderFilter(db.Table("order_items"), completed).
		Select("orders.created_at AS created_at, order_items.product_id, order_items.quantity, order_items.subtotal").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Order("orders.created_at ASC").Order("order_items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.NewStoreError("list staff sales", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := findProducts(db, ids)
	if err != nil {
		return nil, err
	}

	type lineKey struct {
		date      string
		productID uint
	}
	index := make(map[lineKey]int)
	for _, row := range rows {
		key := lineKey{date: row.CreatedAt.In(time.Local).Format("2006-01-02"), productID: row.ProductID}
		i, ok := index[key]
		if !ok {
			i = len(sales.Lines)
			index[key] = i
			sales.Lines = append(sales.Lines, SalesLine{
				SaleDate:    key.date,
				ProductID:   row.ProductID,
				ProductName: products[row.ProductID].Name,
				TotalPrice:  decimal.Zero,
			})
		}
		sales.Lines[i].QuantitySold += row.Quantity
		sales.Lines[i].TotalPrice = sales.Lines[i].TotalPrice.Add(row.Subtotal)
	}
	return sales, nil
}

func distinctProductIDs(specs []ItemSpec) []uint {
	seen := make(map[uint]struct{}, len(specs))
	ids := make([]uint, 0, len(specs))
	for _, spec := range specs {
		if _, ok := seen[spec.ProductID]; ok {
			continue
		}
		seen[spec.ProductID] = struct{}{}
		ids = append(ids, spec.ProductID)
	}
	return ids
}
