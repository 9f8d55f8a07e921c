package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/cart"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/realtime"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/testutil"
)

type mockOrderStore struct {
	createOrderFn       func(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error)
	replaceOrderItemsFn func(ctx context.Context, orderID uint, specs []repository.ItemSpec, opts repository.ReplaceOptions) (*models.Order, error)
	transitionStatusFn  func(ctx context.Context, orderID uint, status models.OrderStatus) error
	deleteOrderFn       func(ctx context.Context, orderID uint) error
	getOrderFn          func(ctx context.Context, orderID uint) (*models.Order, error)
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
	return m.createOrderFn(ctx, items, customerName, method, createdBy)
}

func (m *mockOrderStore) ReplaceOrderItems(ctx context.Context, orderID uint, specs []repository.ItemSpec, opts repository.ReplaceOptions) (*models.Order, error) {
	return m.replaceOrderItemsFn(ctx, orderID, specs, opts)
}

func (m *mockOrderStore) TransitionStatus(ctx context.Context, orderID uint, status models.OrderStatus) error {
	return m.transitionStatusFn(ctx, orderID, status)
}

func (m *mockOrderStore) DeleteOrder(ctx context.Context, orderID uint) error {
	return m.deleteOrderFn(ctx, orderID)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return m.getOrderFn(ctx, orderID)
}

type mockProducts struct {
	products map[uint]models.Product
}

func (m *mockProducts) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockPublisher struct {
	published []realtime.Notification
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, n realtime.Notification) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.published = append(m.published, n)
	return m.err
}

func kopiSusu() models.Product {
	return models.Product{ID: 1, Name: "Kopi Susu", Price: decimal.NewFromInt(12000)}
}

func TestSubmitCart_PublishesAfterSuccess(t *testing.T) {
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
			return &models.Order{ID: 10, CustomerName: customerName, Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(24000)}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	order, err := svc.SubmitCart(context.Background(),
		[]models.CartItem{{Product: kopiSusu(), Quantity: 2}}, "Andi", models.PaymentCash, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, uint(10), order.ID)

	require.Len(t, pub.published, 1)
	assert.Equal(t, realtime.EventOrdersUpdated, pub.published[0].Event)
	assert.Equal(t, uint(10), pub.published[0].OrderID)
	assert.Equal(t, "created", pub.published[0].Action)
	assert.Equal(t, map[string]string{"status": "pending", "total": "24000"}, pub.published[0].Meta)
}

func TestSubmitCart_NoPublishOnFailure(t *testing.T) {
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
			return nil, apperrors.NewValidationError("cart is empty")
		},
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	_, err := svc.SubmitCart(context.Background(), nil, "Andi", models.PaymentCash, "staff-1")
	require.Error(t, err)
	assert.Empty(t, pub.published)
}

func TestMutation_SucceedsWhenChannelUnavailable(t *testing.T) {
	store := &mockOrderStore{
		transitionStatusFn: func(ctx context.Context, orderID uint, status models.OrderStatus) error { return nil },
		getOrderFn: func(ctx context.Context, orderID uint) (*models.Order, error) {
			return &models.Order{ID: orderID, Status: models.OrderStatusCompleted}, nil
		},
	}
	pub := &mockPublisher{err: apperrors.ErrNotificationUnavailable}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	order, err := svc.CompleteOrder(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "completed", pub.published[0].Meta["status"])
}

func TestPublishSurvivesCancelledRequest(t *testing.T) {
	store := &mockOrderStore{
		deleteOrderFn: func(ctx context.Context, orderID uint) error { return nil },
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.DeleteOrder(ctx, 3))
	require.Len(t, pub.published, 1)
	assert.Equal(t, "deleted", pub.published[0].Action)
	assert.Nil(t, pub.published[0].Meta)
}

func TestCancelOrder_InvalidTransitionPropagates(t *testing.T) {
	store := &mockOrderStore{
		transitionStatusFn: func(ctx context.Context, orderID uint, status models.OrderStatus) error {
			return apperrors.NewInvalidTransitionError(orderID, "completed", string(status))
		},
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	_, err := svc.CancelOrder(context.Background(), 5)
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Empty(t, pub.published)
}

func TestEditOrder_Publishes(t *testing.T) {
	var gotOpts repository.ReplaceOptions
	store := &mockOrderStore{
		replaceOrderItemsFn: func(ctx context.Context, orderID uint, specs []repository.ItemSpec, opts repository.ReplaceOptions) (*models.Order, error) {
			gotOpts = opts
			return &models.Order{ID: orderID, Version: 3}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	version := 2
	order, err := svc.EditOrder(context.Background(), 8,
		[]repository.ItemSpec{{ProductID: 1, Quantity: 1}},
		repository.ReplaceOptions{ExpectedVersion: &version})
	require.NoError(t, err)
	assert.Equal(t, 3, order.Version)
	assert.Equal(t, &version, gotOpts.ExpectedVersion)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "edited", pub.published[0].Action)
	assert.Equal(t, "3", pub.published[0].Meta["version"])
}

func TestSubmitItems_ResolvesCurrentProducts(t *testing.T) {
	var gotItems []models.CartItem
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
			gotItems = items
			return &models.Order{ID: 1}, nil
		},
	}
	products := &mockProducts{products: map[uint]models.Product{1: kopiSusu()}}
	svc := NewOrderService(store, products, &mockPublisher{}, testutil.NewLogger())

	_, err := svc.SubmitItems(context.Background(),
		[]repository.ItemSpec{{ProductID: 1, Size: models.SizeLarge, Quantity: 2}}, "Andi", models.PaymentQRIS, "s")
	require.NoError(t, err)
	require.Len(t, gotItems, 1)
	assert.Equal(t, "Kopi Susu", gotItems[0].Product.Name)
	assert.Equal(t, models.SizeLarge, gotItems[0].Size)

	_, err = svc.SubmitItems(context.Background(),
		[]repository.ItemSpec{{ProductID: 99, Quantity: 1}}, "Andi", models.PaymentQRIS, "s")
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestCheckout_ClearsCartOnlyOnSuccess(t *testing.T) {
	fail := true
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, items []models.CartItem, customerName string, method models.PaymentMethod, createdBy string) (*models.Order, error) {
			if fail {
				return nil, &apperrors.StoreError{Op: "insert order", Err: errors.New("db down")}
			}
			assert.Equal(t, models.PaymentCash, method)
			assert.Equal(t, "staff-1", createdBy)
			return &models.Order{ID: 2}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewOrderService(store, &mockProducts{}, pub, testutil.NewLogger())

	carts := cart.NewStore()
	_, err := carts.Update("staff-1", func(c *cart.Cart) {
		c.Add(kopiSusu(), models.SizeRegular, 2)
		c.SetPaymentMethod(models.PaymentCash)
	})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), carts, "staff-1", "Andi")
	require.Error(t, err)
	assert.Equal(t, 2, carts.Snapshot("staff-1").TotalItems, "failed checkout keeps the cart")

	fail = false
	order, err := svc.Checkout(context.Background(), carts, "staff-1", "Andi")
	require.NoError(t, err)
	assert.Equal(t, uint(2), order.ID)
	assert.Equal(t, 0, carts.Snapshot("staff-1").TotalItems)
	assert.Equal(t, models.PaymentMethod(""), carts.Snapshot("staff-1").PaymentMethod)
	assert.Len(t, pub.published, 1)
}
