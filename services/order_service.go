package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/cart"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/realtime"
	"github.com/yeremiapane/kasir-app/repository"
)

const publishTimeout = 3 * time.Second

type OrderStore interface {
	CreateOrder(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error)
	ReplaceOrderItems(ctx context.Context, orderID uint, specs []repository.ItemSpec, opts repository.ReplaceOptions) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderID uint, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID uint) error
	GetOrder(ctx context.Context, orderID uint) (*models.Order, error)
}

type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

type Publisher interface {
	Publish(ctx context.Context, n realtime.Notification) error
}

// OrderService menjalankan mutasi order lalu mengirim notifikasi ke semua terminal.
// Gagal kirim notifikasi tidak pernah menggagalkan mutasi.
type OrderService struct {
	store     OrderStore
	products  ProductLookup
	publisher Publisher
	log       *logrus.Logger
}

func NewOrderService(store OrderStore, products ProductLookup, publisher Publisher, logger *logrus.Logger) *OrderService {
	return &OrderService{store: store, products: products, publisher: publisher, log: logger}
}

func (s *OrderService) SubmitCart(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
	order, err := s.store.CreateOrder(ctx, items, customerName, method, createdBy)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, order.ID, "created", map[string]string{
		"status": string(order.Status),
		"total":  order.TotalAmount.StringFixed(0),
	})
	return order, nil
}

// SubmitItems membuat order dari daftar item dengan data produk terkini.
func (s *OrderService) SubmitItems(ctx context.Context, specs []repository.ItemSpec, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
	ids := make([]uint, 0, len(specs))
	for _, spec := range specs {
		ids = append(ids, spec.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(specs))
	var missing []apperrors.ValidationDetail
	for i, spec := range specs {
		product, ok := products[spec.ProductID]
		if !ok && spec.ProductID != 0 {
			missing = append(missing, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: fmt.Sprintf("product %d does not exist", spec.ProductID),
			})
			continue
		}
		product.ID = spec.ProductID
		items = append(items, models.CartItem{Product: product, Size: spec.Size, Quantity: spec.Quantity})
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("unknown products in order items", missing...)
	}

	return s.SubmitCart(ctx, items, customerName, method, createdBy)
}

// Checkout mengubah keranjang staff menjadi order tepat satu kali.
func (s *OrderService) Checkout(ctx context.Context, carts *cart.Store, owner, customerName string) (*models.Order, error) {
	snapshot, finish, err := carts.BeginCheckout(owner)
	if err != nil {
		return nil, err
	}

	order, err := s.SubmitCart(ctx, snapshot.Items, customerName, snapshot.PaymentMethod, owner)
	finish(err == nil)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) EditOrder(ctx context.Context, orderID uint, specs []repository.ItemSpec, opts repository.ReplaceOptions) (*models.Order, error) {
	order, err := s.store.ReplaceOrderItems(ctx, orderID, specs, opts)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, orderID, "edited", map[string]string{
		"version": strconv.Itoa(order.Version),
		"total":   order.TotalAmount.StringFixed(0),
	})
	return order, nil
}

func (s *OrderService) CompleteOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusCompleted)
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusCancelled)
}

func (s *OrderService) transition(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if err := s.store.TransitionStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	s.notify(ctx, orderID, string(status), map[string]string{"status": string(status)})

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		// status sudah tersimpan; kembalikan data minimal
		s.log.WithError(err).WithField("order_id", orderID).Warn("Failed to reload order after transition")
		return &models.Order{ID: orderID, Status: status}, nil
	}
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.notify(ctx, orderID, "deleted", nil)
	return nil
}

// notify dipanggil setelah mutasi berhasil. Context dilepas dari request supaya
// notifikasi tetap terkirim walau client sudah menutup koneksi.
func (s *OrderService) notify(ctx context.Context, orderID uint, action string, meta map[string]string) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(pctx, realtime.Notification{
		Event:   realtime.EventOrdersUpdated,
		OrderID: orderID,
		Action:  action,
		Meta:    meta,
	})
	if err == nil {
		return
	}

	entry := s.log.WithFields(logrus.Fields{"order_id": orderID, "action": action})
	if errors.Is(err, apperrors.ErrNotificationUnavailable) {
		entry.Warn("Order saved but other terminals were not notified")
		return
	}
	entry.WithError(err).Warn("Failed to publish order notification")
}
