package analytics

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
)

// ErrInvalidRange is returned when the window's start is after its end.
var ErrInvalidRange = errors.New("startDate must not be after endDate")

// Report is the aggregate view over a time window of orders.
//
// OrdersByStatus and TopCustomers are store-wide, not restricted to the
// window. That mirrors the behaviour the dashboards were built against.
type Report struct {
	TotalSales        decimal.Decimal
	TotalOrders       int64
	AverageOrderValue decimal.Decimal
	SalesByDate       []DateSales
	OrdersByStatus    []StatusCount
	TopProducts       []ProductSales
	TopCustomers      []CustomerRank
}

// DateSales is the summed order total for one calendar date.
type DateSales struct {
	Date   string // yyyy-MM-dd in the configured reporting time zone
	Amount decimal.Decimal
}

// StatusCount is the number of orders currently in one status.
type StatusCount struct {
	Status order.Status
	Count  int64
}

// ProductSales ranks a product by units sold within the window.
type ProductSales struct {
	ID       int64
	Name     string
	SKU      string
	Quantity int
	Revenue  decimal.Decimal
}

// CustomerRank is a customer's position in the lifetime-spend ranking.
type CustomerRank struct {
	ID          int64
	Name        string
	TotalSpent  decimal.Decimal
	TotalOrders int
}

// SalesMetrics holds the rolling sums over windows anchored on "now".
type SalesMetrics struct {
	TodaySales decimal.Decimal
	WeekSales  decimal.Decimal
	MonthSales decimal.Decimal
	YearSales  decimal.Decimal
}

// Repository is the read-side gateway the analytics engine runs on. All
// queries observe a point-in-time view and never block writers.
type Repository interface {
	// OrdersInRange returns the orders whose createdAt falls inside the
	// inclusive window, with items and their product info eager-loaded.
	OrdersInRange(ctx context.Context, from, to time.Time) ([]order.Order, error)
	// SumTotalsInRange returns the sum of order totals inside the inclusive
	// window; zero when the window is empty.
	SumTotalsInRange(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	TopCustomersBySpent(ctx context.Context, limit int) ([]customer.Customer, error)
}
