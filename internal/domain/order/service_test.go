package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/product"
	"github.com/ordway/salesdesk/internal/domain/user"
)

// --- Mock implementations ---

// stockAdjustment records one AdjustProductStock call.
type stockAdjustment struct {
	productID int64
	delta     int
}

// aggregateAdjustment records one AdjustCustomerAggregates call.
type aggregateAdjustment struct {
	customerID int64
	orders     int
	spent      decimal.Decimal
}

// mockTx implements Tx against in-memory maps and records every mutation.
type mockTx struct {
	products map[int64]*product.Product
	customer *customer.Customer
	userOK   bool
	order    *Order

	nextOrderID      int64
	insertOrderErr   error
	insertOrderCalls int

	lockedProductIDs [][]int64
	insertedOrder    *Order
	insertedItems    []Item
	stockAdjusts     []stockAdjustment
	aggregateAdjusts []aggregateAdjustment
	updatedOrder     *Order
	deletedOrderID   int64
}

func (m *mockTx) ProductsForUpdate(_ context.Context, ids []int64) ([]product.Product, error) {
	m.lockedProductIDs = append(m.lockedProductIDs, ids)
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockTx) CustomerForUpdate(_ context.Context, id int64) (*customer.Customer, error) {
	if m.customer == nil || m.customer.ID != id {
		return nil, customer.ErrNotFound
	}
	return m.customer, nil
}

func (m *mockTx) UserExists(_ context.Context, _ int64) (bool, error) {
	return m.userOK, nil
}

func (m *mockTx) InsertOrder(_ context.Context, o *Order) error {
	m.insertOrderCalls++
	if m.insertOrderErr != nil {
		err := m.insertOrderErr
		m.insertOrderErr = nil
		return err
	}
	if m.nextOrderID == 0 {
		m.nextOrderID = 1
	}
	o.ID = m.nextOrderID
	m.insertedOrder = o
	return nil
}

func (m *mockTx) InsertItems(_ context.Context, _ int64, items []Item) error {
	m.insertedItems = items
	return nil
}

func (m *mockTx) AdjustProductStock(_ context.Context, productID int64, delta int) error {
	m.stockAdjusts = append(m.stockAdjusts, stockAdjustment{productID: productID, delta: delta})
	return nil
}

func (m *mockTx) AdjustCustomerAggregates(_ context.Context, customerID int64, orders int, spent decimal.Decimal) error {
	m.aggregateAdjusts = append(m.aggregateAdjusts, aggregateAdjustment{
		customerID: customerID,
		orders:     orders,
		spent:      spent,
	})
	return nil
}

func (m *mockTx) OrderForUpdate(_ context.Context, id int64) (*Order, error) {
	if m.order == nil || m.order.ID != id {
		return nil, ErrNotFound
	}
	return m.order, nil
}

func (m *mockTx) UpdateOrder(_ context.Context, o *Order) error {
	m.updatedOrder = o
	return nil
}

func (m *mockTx) DeleteOrder(_ context.Context, id int64) error {
	m.deletedOrderID = id
	return nil
}

// mockStore runs transaction functions directly against its mockTx.
type mockStore struct {
	tx *mockTx
}

func (m *mockStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(m.tx)
}

func (m *mockStore) GetByID(_ context.Context, id int64) (*Order, error) {
	if m.tx.order == nil || m.tx.order.ID != id {
		return nil, ErrNotFound
	}
	return m.tx.order, nil
}

func (m *mockStore) List(_ context.Context, _ ListParams) ([]Order, int64, error) {
	return nil, 0, nil
}

func (m *mockStore) ListByCustomer(_ context.Context, _ int64, _, _ int) ([]Order, int64, error) {
	return nil, 0, nil
}

func (m *mockStore) ListByStatus(_ context.Context, _ Status, _, _ int) ([]Order, int64, error) {
	return nil, 0, nil
}

func (m *mockStore) SearchByNumber(_ context.Context, _ string, _, _ int) ([]Order, int64, error) {
	return nil, 0, nil
}

// --- Helpers ---

func intPtr(v int) *int { return &v }

func newTestProduct(id int64, name, sku string, price decimal.Decimal, stock *int) *product.Product {
	return &product.Product{
		ID:            id,
		SKU:           sku,
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func newTestTx() *mockTx {
	return &mockTx{
		products: map[int64]*product.Product{
			1: newTestProduct(1, "Standing Desk", "DESK-0001", decimal.NewFromInt(100), intPtr(5)),
			2: newTestProduct(2, "LED Desk Lamp", "LAMP-0003", decimal.RequireFromString("39.99"), nil),
		},
		customer: &customer.Customer{ID: 7, Name: "Acme Corporation", Email: "purchasing@acme.example"},
		userOK:   true,
	}
}

func newTestService(tx *mockTx) *Service {
	svc := NewService(&mockStore{tx: tx})
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

// --- Tests ---

func TestCreate_ComputesTotalsAndAdjustsAggregates(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	o, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 2}},
		CreatedBy:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, "200", o.Subtotal.String())
	assert.Equal(t, "16", o.Tax.String())
	assert.Equal(t, "216", o.Total.String())
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "ORD-1749988800000", o.OrderNumber)
	assert.Equal(t, "Acme Corporation", o.CustomerName)
	assert.Equal(t, "purchasing@acme.example", o.CustomerEmail)

	require.Len(t, tx.stockAdjusts, 1)
	assert.Equal(t, stockAdjustment{productID: 1, delta: -2}, tx.stockAdjusts[0])

	require.Len(t, tx.aggregateAdjusts, 1)
	assert.Equal(t, int64(7), tx.aggregateAdjusts[0].customerID)
	assert.Equal(t, 1, tx.aggregateAdjusts[0].orders)
	assert.True(t, tx.aggregateAdjusts[0].spent.Equal(o.Total))
}

func TestCreate_ShippingAddedToTotal(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	shipping := decimal.NewFromInt(5)
	o, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 2}},
		Shipping:   &shipping,
		CreatedBy:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, "221", o.Total.String())
}

func TestCreate_TaxRoundsHalfToEven(t *testing.T) {
	tx := newTestTx()
	tx.products[3] = newTestProduct(3, "Widget", "WID-0006", decimal.RequireFromString("10.31"), nil)
	svc := newTestService(tx)

	o, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 3, Quantity: 5}},
		CreatedBy:  3,
	})
	require.NoError(t, err)

	// 51.55 * 0.08 = 4.124 -> 4.12
	assert.Equal(t, "51.55", o.Subtotal.String())
	assert.Equal(t, "4.12", o.Tax.String())
}

func TestCreate_UnmanagedStockNotTouched(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 2, Quantity: 50}},
		CreatedBy:  3,
	})
	require.NoError(t, err)

	assert.Empty(t, tx.stockAdjusts)
}

func TestCreate_DuplicateProductCombinedQuantity(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	o, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items: []ItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 1, Quantity: 3},
		},
		CreatedBy: 3,
	})
	require.NoError(t, err)

	// Two line items survive, one combined stock decrement.
	assert.Len(t, o.Items, 2)
	require.Len(t, tx.stockAdjusts, 1)
	assert.Equal(t, stockAdjustment{productID: 1, delta: -5}, tx.stockAdjusts[0])
}

func TestCreate_InsufficientStock(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 6}},
		CreatedBy:  3,
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Empty(t, tx.stockAdjusts)
	assert.Empty(t, tx.aggregateAdjusts)
}

func TestCreate_EmptyItems(t *testing.T) {
	svc := newTestService(newTestTx())

	_, err := svc.Create(context.Background(), CreateRequest{CustomerID: 7})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	svc := newTestService(newTestTx())

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(1), iqErr.ProductID)
}

func TestCreate_NegativeShipping(t *testing.T) {
	svc := newTestService(newTestTx())

	shipping := decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 1}},
		Shipping:   &shipping,
	})
	require.ErrorIs(t, err, ErrNegativeShipping)
}

func TestCreate_UnknownProduct(t *testing.T) {
	svc := newTestService(newTestTx())

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 99, Quantity: 1}},
		CreatedBy:  3,
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, int64(99), pnfErr.ProductID)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	svc := newTestService(newTestTx())

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 999,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 1}},
		CreatedBy:  3,
	})
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCreate_UnknownUser(t *testing.T) {
	tx := newTestTx()
	tx.userOK = false
	svc := newTestService(tx)

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 1}},
		CreatedBy:  999,
	})
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreate_RetriesOnNumberCollision(t *testing.T) {
	tx := newTestTx()
	tx.insertOrderErr = ErrNumberCollision
	svc := newTestService(tx)

	o, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 1}},
		CreatedBy:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tx.insertOrderCalls)
	assert.NotZero(t, o.ID)
}

func TestCreate_GivesUpAfterBoundedRetries(t *testing.T) {
	tx := newTestTx()
	svc := newTestService(tx)

	// Every insert collides.
	calls := 0
	svcStore := &collidingStore{tx: tx, calls: &calls}
	svc = NewService(svcStore)
	svc.now = time.Now

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		Items:      []ItemRequest{{ProductID: 1, Quantity: 1}},
		CreatedBy:  3,
	})
	require.ErrorIs(t, err, ErrNumberCollision)
	assert.Equal(t, numberAttempts, calls)
}

// collidingStore fails every transaction with ErrNumberCollision.
type collidingStore struct {
	mockStore
	tx    *mockTx
	calls *int
}

func (s *collidingStore) WithTx(_ context.Context, _ func(tx Tx) error) error {
	*s.calls++
	return ErrNumberCollision
}

func TestUpdate_StatusTransition(t *testing.T) {
	tx := newTestTx()
	tx.order = &Order{
		ID:         1,
		CustomerID: 7,
		Status:     StatusPending,
		Items:      []Item{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(100)}},
	}
	svc := newTestService(tx)

	o, err := svc.Update(context.Background(), 1, UpdateRequest{Status: StatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
	require.NotNil(t, tx.updatedOrder)
}

func TestUpdate_InvalidTransition(t *testing.T) {
	tx := newTestTx()
	tx.order = &Order{ID: 1, CustomerID: 7, Status: StatusDelivered}
	svc := newTestService(tx)

	_, err := svc.Update(context.Background(), 1, UpdateRequest{Status: StatusPending})

	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusDelivered, trErr.From)
	assert.Equal(t, StatusPending, trErr.To)
	assert.Nil(t, tx.updatedOrder)
}

func TestUpdate_ShippingRecomputesTotal(t *testing.T) {
	tx := newTestTx()
	tx.order = &Order{
		ID:         1,
		CustomerID: 7,
		Status:     StatusPending,
		Items:      []Item{{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(100)}},
	}
	svc := newTestService(tx)

	shipping := decimal.NewFromInt(10)
	o, err := svc.Update(context.Background(), 1, UpdateRequest{Shipping: &shipping})
	require.NoError(t, err)

	assert.Equal(t, "200", o.Subtotal.String())
	assert.Equal(t, "16", o.Tax.String())
	assert.Equal(t, "226", o.Total.String())
	// Aggregates stay as they were at creation time.
	assert.Empty(t, tx.aggregateAdjusts)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newTestTx())

	_, err := svc.Update(context.Background(), 404, UpdateRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_RestoresStockAndAggregates(t *testing.T) {
	tx := newTestTx()
	tx.order = &Order{
		ID:         1,
		CustomerID: 7,
		Status:     StatusPending,
		Total:      decimal.NewFromInt(216),
		Items: []Item{
			{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(100)},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("39.99")},
		},
	}
	svc := newTestService(tx)

	require.NoError(t, svc.Delete(context.Background(), 1))

	// Only the managed product gets its stock back.
	require.Len(t, tx.stockAdjusts, 1)
	assert.Equal(t, stockAdjustment{productID: 1, delta: 2}, tx.stockAdjusts[0])

	require.Len(t, tx.aggregateAdjusts, 1)
	assert.Equal(t, -1, tx.aggregateAdjusts[0].orders)
	assert.True(t, tx.aggregateAdjusts[0].spent.Equal(decimal.NewFromInt(-216)))

	assert.Equal(t, int64(1), tx.deletedOrderID)
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newTestTx())

	err := svc.Delete(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListByStatus_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newTestTx())

	_, _, err := svc.ListByStatus(context.Background(), Status("BOGUS"), 0, 10)

	var stErr *UnknownStatusError
	require.ErrorAs(t, err, &stErr)
}
