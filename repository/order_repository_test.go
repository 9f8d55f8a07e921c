package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/testutil"
	"gorm.io/gorm"
)

func setupOrderRepo(t *testing.T) (*OrderRepository, *gorm.DB, []models.Product) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	products := testutil.SeedMenu(t, db)
	return NewOrderRepository(db, testutil.NewLogger()), db, products
}

func assertTotalMatchesItems(t *testing.T, order *models.Order) {
	t.Helper()
	assert.True(t, order.TotalAmount.Equal(order.ItemsTotal()),
		"total %s != sum of items %s", order.TotalAmount, order.ItemsTotal())
}

func TestCreateOrder_KopiSusuScenario(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	kopiSusu := products[0]
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: kopiSusu, Size: models.SizeRegular, Quantity: 2}},
		"Andi", models.PaymentCash, "staff-ref-1")
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 1, order.Version)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(24000)))
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Subtotal.Equal(decimal.NewFromInt(24000)))

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Andi", stored.CustomerName)
	assert.Equal(t, "staff-ref-1", stored.CreatedBy)
	assert.Equal(t, models.PaymentCash, stored.PaymentMethod)
	require.Len(t, stored.Items, 1)
	require.NotNil(t, stored.Items[0].Product)
	assert.Equal(t, "Kopi Susu", stored.Items[0].Product.Name)
	assertTotalMatchesItems(t, stored)
}

func TestCreateOrder_LargeWithoutLargePriceFallsBack(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	esTeh := products[2]

	order, err := repo.CreateOrder(context.Background(),
		[]models.CartItem{{Product: esTeh, Size: models.SizeLarge, Quantity: 3}},
		"Budi", models.PaymentQRIS, "staff-ref-1")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(15000)))
}

func TestCreateOrder_ValidationBeforeStore(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		items    []models.CartItem
		customer string
		method   models.PaymentMethod
		field    string
	}{
		{"empty cart", nil, "Andi", models.PaymentCash, "items"},
		{"blank customer", []models.CartItem{{Product: products[0], Quantity: 1}}, "   ", models.PaymentCash, "customer_name"},
		{"missing payment method", []models.CartItem{{Product: products[0], Quantity: 1}}, "Andi", "", "payment_method"},
		{"zero quantity", []models.CartItem{{Product: products[0], Quantity: 0}}, "Andi", models.PaymentCash, "items[0].quantity"},
		{"bad size", []models.CartItem{{Product: products[0], Size: "huge", Quantity: 1}}, "Andi", models.PaymentCash, "items[0].size"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.CreateOrder(ctx, tc.items, tc.customer, tc.method, "staff")
			ve, ok := apperrors.IsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)

			var fields []string
			for _, d := range ve.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrder_CompensatesWhenItemInsertFails(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	insertErr := errors.New("order_items unavailable")

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_order_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(insertErr)
		}
	}))

	_, err := repo.CreateOrder(context.Background(),
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr, "original item insert error is the primary cause")

	se, ok := apperrors.IsStoreError(err)
	require.True(t, ok)
	assert.Equal(t, "insert order items", se.Op)
	assert.NoError(t, se.Compensation)

	var orders, items int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, orders, "no orphan order remains")
	assert.Zero(t, items)
}

func TestCreateOrder_CompensationFailureKeepsOriginalError(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	insertErr := errors.New("insert items failed")
	deleteErr := errors.New("delete failed")

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(insertErr)
		}
	}))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "orders" {
			_ = tx.AddError(deleteErr)
		}
	}))

	_, err := repo.CreateOrder(context.Background(),
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)

	se, ok := apperrors.IsStoreError(err)
	require.True(t, ok)
	assert.ErrorIs(t, se.Compensation, deleteErr)
}

func TestReplaceOrderItems_TwoItemsToOne(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, []models.CartItem{
		{Product: products[0], Size: models.SizeRegular, Quantity: 2},
		{Product: products[2], Size: models.SizeRegular, Quantity: 1},
	}, "Andi", models.PaymentCash, "staff")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(29000)))

	newName := "Andi W"
	qris := models.PaymentQRIS
	edited, err := repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[1].ID, Size: models.SizeLarge, Quantity: 1}},
		ReplaceOptions{CustomerName: &newName, PaymentMethod: &qris})
	require.NoError(t, err)

	require.Len(t, edited.Items, 1)
	assert.Equal(t, products[1].ID, edited.Items[0].ProductID)
	assert.True(t, edited.Items[0].Subtotal.Equal(decimal.NewFromInt(19000)))
	assert.True(t, edited.TotalAmount.Equal(edited.Items[0].Subtotal))
	assert.Equal(t, "Andi W", edited.CustomerName)
	assert.Equal(t, models.PaymentQRIS, edited.PaymentMethod)
	assert.Equal(t, 2, edited.Version)
	assertTotalMatchesItems(t, edited)
}

func TestReplaceOrderItems_UsesCurrentProductPrice(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", products[0].ID).
		Update("price", decimal.NewFromInt(13000)).Error)

	edited, err := repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[0].ID, Quantity: 2}}, ReplaceOptions{})
	require.NoError(t, err)
	assert.True(t, edited.TotalAmount.Equal(decimal.NewFromInt(26000)), "got %s", edited.TotalAmount)
}

func TestReplaceOrderItems_RollsBackOnUnknownProduct(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 2}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	_, err = repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: 9999, Quantity: 1}}, ReplaceOptions{})
	_, ok := apperrors.IsValidationError(err)
	require.True(t, ok, "got %v", err)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1, "old items survive a failed edit")
	assert.Equal(t, 1, stored.Version)
	assertTotalMatchesItems(t, stored)
}

func TestReplaceOrderItems_StaleVersionConflicts(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	seen := order.Version
	_, err = repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[0].ID, Quantity: 2}}, ReplaceOptions{ExpectedVersion: &seen})
	require.NoError(t, err)

	_, err = repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[2].ID, Quantity: 5}}, ReplaceOptions{ExpectedVersion: &seen})
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok, "second edit based on version %d must conflict, got %v", seen, err)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, products[0].ID, stored.Items[0].ProductID)
}

func TestReplaceOrderItems_RejectsTerminalOrder(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)
	require.NoError(t, repo.TransitionStatus(ctx, order.ID, models.OrderStatusCompleted))

	_, err = repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[0].ID, Quantity: 3}}, ReplaceOptions{})
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok, "got %v", err)

	_, err = repo.ReplaceOrderItems(ctx, 424242,
		[]ItemSpec{{ProductID: products[0].ID, Quantity: 3}}, ReplaceOptions{})
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestTransitionStatus_Guard(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	require.NoError(t, repo.TransitionStatus(ctx, order.ID, models.OrderStatusCompleted))

	err = repo.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled)
	it, ok := apperrors.IsInvalidTransitionError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "completed", it.From)
	assert.Equal(t, "cancelled", it.To)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Version, "transition changes status only")

	err = repo.TransitionStatus(ctx, order.ID, models.OrderStatusPending)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)

	err = repo.TransitionStatus(ctx, 777, models.OrderStatusCompleted)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestDeleteOrder_CascadesItems(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, []models.CartItem{
		{Product: products[0], Quantity: 1},
		{Product: products[1], Quantity: 1},
	}, "Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteOrder(ctx, order.ID))

	var items int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items)
	assert.Zero(t, items)

	_, err = repo.GetOrder(ctx, order.ID)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	err = repo.DeleteOrder(ctx, order.ID)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestDeleteOrder_StopsWhenItemDeleteFails(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)

	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_item_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(errors.New("items locked"))
		}
	}))

	err = repo.DeleteOrder(ctx, order.ID)
	_, ok := apperrors.IsStoreError(err)
	require.True(t, ok, "got %v", err)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err, "order must still exist")
	assert.Len(t, stored.Items, 1)
}

func TestListPending_OldestFirst(t *testing.T) {
	repo, db, products := setupOrderRepo(t)
	ctx := context.Background()

	create := func(name string) *models.Order {
		o, err := repo.CreateOrder(ctx,
			[]models.CartItem{{Product: products[0], Quantity: 1}},
			name, models.PaymentCash, "staff")
		require.NoError(t, err)
		return o
	}
	later := create("Later")
	earlier := create("Earlier")
	done := create("Done")

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", earlier.ID).UpdateColumn("created_at", base).Error)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", later.ID).UpdateColumn("created_at", base.Add(10*time.Minute)).Error)
	require.NoError(t, repo.TransitionStatus(ctx, done.ID, models.OrderStatusCompleted))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Earlier", pending[0].CustomerName)
	assert.Equal(t, "Later", pending[1].CustomerName)
	require.Len(t, pending[0].Items, 1)
	assert.NotNil(t, pending[0].Items[0].Product)

	history, err := repo.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Earlier", history[2].CustomerName, "history is newest first")

	completed, err := repo.ListOrders(ctx, OrderFilter{Status: models.OrderStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Done", completed[0].CustomerName)
}

func TestSummary(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	a, err := repo.CreateOrder(ctx, []models.CartItem{{Product: products[0], Quantity: 2}}, "A", models.PaymentCash, "s")
	require.NoError(t, err)
	b, err := repo.CreateOrder(ctx, []models.CartItem{{Product: products[2], Quantity: 1}}, "B", models.PaymentQRIS, "s")
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, []models.CartItem{{Product: products[1], Quantity: 1}}, "C", models.PaymentCash, "s")
	require.NoError(t, err)

	require.NoError(t, repo.TransitionStatus(ctx, a.ID, models.OrderStatusCompleted))
	require.NoError(t, repo.TransitionStatus(ctx, b.ID, models.OrderStatusCancelled))

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(24000)), "got %s", summary.Revenue)
	assert.Equal(t, int64(3), summary.TotalOrders)
	assert.Equal(t, int64(1), summary.PendingOrders)
}

func TestSizeIsCaseInsensitive(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx,
		[]models.CartItem{{Product: products[0], Size: "LARGE", Quantity: 1}},
		"Andi", models.PaymentCash, "staff")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.SizeLarge, order.Items[0].Size)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(16000)), "got %s", order.TotalAmount)

	edited, err := repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[1].ID, Size: " Large ", Quantity: 2}}, ReplaceOptions{})
	require.NoError(t, err)
	require.Len(t, edited.Items, 1)
	assert.Equal(t, models.SizeLarge, edited.Items[0].Size)
	assert.True(t, edited.TotalAmount.Equal(decimal.NewFromInt(38000)), "got %s", edited.TotalAmount)

	_, err = repo.ReplaceOrderItems(ctx, order.ID,
		[]ItemSpec{{ProductID: products[1].ID, Size: "huge", Quantity: 1}}, ReplaceOptions{})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestListOrders_LimitIsClamped(t *testing.T) {
	repo, db, _ := setupOrderRepo(t)
	ctx := context.Background()

	orders := make([]models.Order, 520)
	for i := range orders {
		orders[i] = models.Order{
			CustomerName:  "Bulk",
			Status:        models.OrderStatusCompleted,
			PaymentMethod: models.PaymentCash,
			CreatedBy:     "staff",
			TotalAmount:   decimal.Zero,
			Version:       1,
		}
	}
	require.NoError(t, db.CreateInBatches(&orders, 100).Error)

	cases := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 100},
		{limit: -5, want: 100},
		{limit: 3, want: 3},
		{limit: 500, want: 500},
		{limit: 1000, want: 500},
	}
	for _, tc := range cases {
		got, err := repo.ListOrders(ctx, OrderFilter{Limit: tc.limit})
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "limit %d", tc.limit)
	}
}

func TestStaffSales(t *testing.T) {
	repo, _, products := setupOrderRepo(t)
	ctx := context.Background()

	first, err := repo.CreateOrder(ctx, []models.CartItem{
		{Product: products[0], Quantity: 2},
		{Product: products[1], Size: models.SizeLarge, Quantity: 1},
	}, "A", models.PaymentCash, "sari")
	require.NoError(t, err)
	second, err := repo.CreateOrder(ctx, []models.CartItem{{Product: products[0], Quantity: 1}}, "B", models.PaymentQRIS, "sari")
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, []models.CartItem{{Product: products[2], Quantity: 4}}, "C", models.PaymentCash, "sari")
	require.NoError(t, err)
	other, err := repo.CreateOrder(ctx, []models.CartItem{{Product: products[3], Quantity: 1}}, "D", models.PaymentCash, "budi")
	require.NoError(t, err)

	for _, id := range []uint{first.ID, second.ID, other.ID} {
		require.NoError(t, repo.TransitionStatus(ctx, id, models.OrderStatusCompleted))
	}

	sales, err := repo.StaffSales(ctx, "sari", nil, nil)
	require.NoError(t, err)
	assert.True(t, sales.Revenue.Equal(decimal.NewFromInt(55000)), "got %s", sales.Revenue)
	assert.Equal(t, int64(2), sales.CompletedOrders)
	assert.Equal(t, int64(3), sales.TotalOrders)

	require.Len(t, sales.Lines, 2)
	assert.Equal(t, "Kopi Susu", sales.Lines[0].ProductName)
	assert.Equal(t, 3, sales.Lines[0].QuantitySold)
	assert.True(t, sales.Lines[0].TotalPrice.Equal(decimal.NewFromInt(36000)))
	assert.Equal(t, "Americano", sales.Lines[1].ProductName)
	assert.Equal(t, 1, sales.Lines[1].QuantitySold)
	assert.Equal(t, time.Now().Format("2006-01-02"), sales.Lines[0].SaleDate)

	tomorrow := time.Now().Add(24 * time.Hour)
	empty, err := repo.StaffSales(ctx, "sari", &tomorrow, nil)
	require.NoError(t, err)
	assert.True(t, empty.Revenue.IsZero())
	assert.Zero(t, empty.TotalOrders)
	assert.Empty(t, empty.Lines)
}
