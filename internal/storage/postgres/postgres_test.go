//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
	"github.com/ordway/salesdesk/internal/domain/product"
)

// startPostgres brings up a throwaway PostgreSQL container, connects a pool,
// and applies the schema.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "salesdesk",
				"POSTGRES_PASSWORD": "salesdesk",
				"POSTGRES_DB":       "salesdesk_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://salesdesk:salesdesk@%s:%s/salesdesk_test", host, port.Port())
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func createFixtures(t *testing.T, pool *pgxpool.Pool) (customerID, productID, userID int64) {
	t.Helper()
	ctx := context.Background()

	customers := NewCustomerRepository(pool)
	c := &customer.Customer{
		Name:   "Acme Corporation",
		Email:  "purchasing@acme.example",
		Status: customer.StatusActive,
	}
	require.NoError(t, customers.Create(ctx, c))

	stock := 10
	products := NewProductRepository(pool)
	p := &product.Product{
		SKU:           "DESK-0001",
		Name:          "Standing Desk",
		Price:         decimal.RequireFromString("499.00"),
		StockQuantity: &stock,
		Category:      "Furniture",
		IsActive:      true,
	}
	require.NoError(t, products.Create(ctx, p))

	err := pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ('ops@salesdesk.local') RETURNING id`,
	).Scan(&userID)
	require.NoError(t, err)

	return c.ID, p.ID, userID
}

func TestOrderLifecycle(t *testing.T) {
	pool := startPostgres(t)
	customerID, productID, userID := createFixtures(t, pool)
	ctx := context.Background()

	store := NewOrderStore(pool)
	svc := order.NewService(store)

	o, err := svc.Create(ctx, order.CreateRequest{
		CustomerID: customerID,
		Items:      []order.ItemRequest{{ProductID: productID, Quantity: 2}},
		CreatedBy:  userID,
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)
	assert.Equal(t, "998", o.Subtotal.String())
	assert.Equal(t, "79.84", o.Tax.String())
	assert.Equal(t, "1077.84", o.Total.String())

	// Stock decremented.
	p, err := NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, p.StockQuantity)
	assert.Equal(t, 8, *p.StockQuantity)

	// Customer aggregates incremented.
	c, err := NewCustomerRepository(pool).GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalOrders)
	assert.Equal(t, "1077.84", c.TotalSpent.String())

	// Round trip with items.
	got, err := store.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Standing Desk", got.Items[0].ProductName)
	assert.Equal(t, "Acme Corporation", got.CustomerName)

	// Status walk.
	for _, status := range []order.Status{order.StatusProcessing, order.StatusShipped} {
		got, err = svc.Update(ctx, o.ID, order.UpdateRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
	_, err = svc.Update(ctx, o.ID, order.UpdateRequest{Status: order.StatusCancelled})
	var trErr *order.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)

	// Delete reverses stock and aggregates.
	require.NoError(t, svc.Delete(ctx, o.ID))

	p, err = NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 10, *p.StockQuantity)

	c, err = NewCustomerRepository(pool).GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.Zero(t, c.TotalOrders)
	assert.True(t, c.TotalSpent.IsZero())

	_, err = store.GetByID(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestInsufficientStockRollsBack(t *testing.T) {
	pool := startPostgres(t)
	customerID, productID, userID := createFixtures(t, pool)
	ctx := context.Background()

	svc := order.NewService(NewOrderStore(pool))

	_, err := svc.Create(ctx, order.CreateRequest{
		CustomerID: customerID,
		Items:      []order.ItemRequest{{ProductID: productID, Quantity: 11}},
		CreatedBy:  userID,
	})
	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// Nothing committed.
	c, err := NewCustomerRepository(pool).GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.Zero(t, c.TotalOrders)
}

func TestUniqueViolations(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	customers := NewCustomerRepository(pool)
	c := &customer.Customer{Name: "A", Email: "dup@example.com", Status: customer.StatusActive}
	require.NoError(t, customers.Create(ctx, c))

	dup := &customer.Customer{Name: "B", Email: "dup@example.com", Status: customer.StatusActive}
	require.ErrorIs(t, customers.Create(ctx, dup), customer.ErrEmailTaken)

	products := NewProductRepository(pool)
	p := &product.Product{SKU: "SKU-1", Name: "A", Price: decimal.NewFromInt(1), IsActive: true}
	require.NoError(t, products.Create(ctx, p))

	dupP := &product.Product{SKU: "SKU-1", Name: "B", Price: decimal.NewFromInt(2), IsActive: true}
	require.ErrorIs(t, products.Create(ctx, dupP), product.ErrSKUTaken)
}

func TestAnalyticsQueries(t *testing.T) {
	pool := startPostgres(t)
	customerID, productID, userID := createFixtures(t, pool)
	ctx := context.Background()

	svc := order.NewService(NewOrderStore(pool))
	for range 2 {
		_, err := svc.Create(ctx, order.CreateRequest{
			CustomerID: customerID,
			Items:      []order.ItemRequest{{ProductID: productID, Quantity: 1}},
			CreatedBy:  userID,
		})
		require.NoError(t, err)
	}

	repo := NewAnalyticsRepository(pool)
	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	orders, err := repo.OrdersInRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, orders[0].Items, 1)

	sum, err := repo.SumTotalsInRange(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, "1077.84", sum.String()) // 2 * 538.92

	byStatus, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, order.StatusPending, byStatus[0].Status)
	assert.EqualValues(t, 2, byStatus[0].Count)

	top, err := repo.TopCustomersBySpent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, customerID, top[0].ID)
}
