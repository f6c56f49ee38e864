package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/analytics"
	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
)

const (
	ordersInRangeSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.created_at BETWEEN $1 AND $2
		ORDER BY o.created_at`

	sumTotalsSQL = `SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE created_at BETWEEN $1 AND $2`

	countByStatusSQL = `SELECT status, count(*) FROM orders
		GROUP BY status ORDER BY status`
)

var _ analytics.Repository = (*AnalyticsRepository)(nil)

// AnalyticsRepository implements analytics.Repository backed by PostgreSQL.
// All queries are plain reads on the pool; they never take row locks.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns an AnalyticsRepository that uses the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// OrdersInRange returns the orders created inside the inclusive window with
// their items eager-loaded: one query for the orders, one for all the items.
func (r *AnalyticsRepository) OrdersInRange(ctx context.Context, from, to time.Time) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, ordersInRangeSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying orders in range: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("querying orders in range: %w", err)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := attachItems(ctx, r.pool, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// SumTotalsInRange returns the sum of order totals inside the inclusive
// window, zero when no orders match.
func (r *AnalyticsRepository) SumTotalsInRange(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, sumTotalsSQL, from, to).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("summing totals: %w", err)
	}
	return sum, nil
}

// CountByStatus returns the store-wide order count per status.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context) ([]analytics.StatusCount, error) {
	rows, err := r.pool.Query(ctx, countByStatusSQL)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.StatusCount, error) {
		var (
			sc     analytics.StatusCount
			status string
		)
		err := row.Scan(&status, &sc.Count)
		sc.Status = order.Status(status)
		return sc, err
	})
}

// TopCustomersBySpent returns the store-wide lifetime-spend ranking.
func (r *AnalyticsRepository) TopCustomersBySpent(ctx context.Context, limit int) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, topCustomersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}
