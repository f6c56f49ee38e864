package analytics

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ordway/salesdesk/internal/domain/order"
)

// topN is the entry cap on the product and customer rankings.
const topN = 5

// Service computes sales analytics. Date bucketing and the rolling windows
// use loc, the configured reporting time zone.
type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService creates an analytics Service. A nil loc defaults to UTC.
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// Report computes the aggregate view over the inclusive window [from, to].
// The three underlying queries are independent and run concurrently. An empty
// window yields zeros and empty lists, not an error.
func (s *Service) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	var (
		orders       []order.Order
		byStatus     []StatusCount
		topCustomers []CustomerRank
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if orders, err = s.repo.OrdersInRange(gctx, from, to); err != nil {
			return errors.Wrap(err, "orders in range")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if byStatus, err = s.repo.CountByStatus(gctx); err != nil {
			return errors.Wrap(err, "count by status")
		}
		return nil
	})
	g.Go(func() error {
		customers, err := s.repo.TopCustomersBySpent(gctx, topN)
		if err != nil {
			return errors.Wrap(err, "top customers")
		}
		topCustomers = make([]CustomerRank, len(customers))
		for i, c := range customers {
			topCustomers[i] = CustomerRank{
				ID:          c.ID,
				Name:        c.Name,
				TotalSpent:  c.TotalSpent,
				TotalOrders: c.TotalOrders,
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalSales := decimal.Zero
	for _, o := range orders {
		totalSales = totalSales.Add(o.Total)
	}

	avg := decimal.Zero
	if len(orders) > 0 {
		avg = totalSales.DivRound(decimal.NewFromInt(int64(len(orders))), 2)
	}

	return &Report{
		TotalSales:        totalSales,
		TotalOrders:       int64(len(orders)),
		AverageOrderValue: avg,
		SalesByDate:       s.salesByDate(orders),
		OrdersByStatus:    byStatus,
		TopProducts:       topProducts(orders),
		TopCustomers:      topCustomers,
	}, nil
}

// salesByDate groups order totals by the calendar date of createdAt in the
// reporting time zone, ascending. Dates without orders do not appear.
func (s *Service) salesByDate(orders []order.Order) []DateSales {
	byDate := make(map[string]decimal.Decimal)
	for _, o := range orders {
		date := o.CreatedAt.In(s.loc).Format("2006-01-02")
		byDate[date] = byDate[date].Add(o.Total)
	}

	out := make([]DateSales, 0, len(byDate))
	for date, amount := range byDate {
		out = append(out, DateSales{Date: date, Amount: amount})
	}
	slices.SortFunc(out, func(a, b DateSales) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// topProducts accumulates per-product units and revenue over the in-window
// line items and returns the top entries ranked by quantity descending, with
// revenue descending and then ID ascending as tie-breakers.
func topProducts(orders []order.Order) []ProductSales {
	acc := make(map[int64]*ProductSales)
	for _, o := range orders {
		for _, item := range o.Items {
			p, ok := acc[item.ProductID]
			if !ok {
				p = &ProductSales{
					ID:   item.ProductID,
					Name: item.ProductName,
					SKU:  item.ProductSKU,
				}
				acc[item.ProductID] = p
			}
			p.Quantity += item.Quantity
			p.Revenue = p.Revenue.Add(item.Total)
		}
	}

	ranked := make([]ProductSales, 0, len(acc))
	for _, p := range acc {
		ranked = append(ranked, *p)
	}
	slices.SortFunc(ranked, func(a, b ProductSales) int {
		if a.Quantity != b.Quantity {
			return b.Quantity - a.Quantity
		}
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Metrics computes the rolling sales sums: today, the current ISO week
// (Monday start), the current month, and the year to date. Every window ends
// at the end of today in the reporting time zone. The four sums run
// concurrently.
func (s *Service) Metrics(ctx context.Context) (*SalesMetrics, error) {
	now := s.now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the previous Monday
	}
	startOfWeek := startOfDay.AddDate(0, 0, -(weekday - 1))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	startOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)

	m := &SalesMetrics{}
	windows := []struct {
		from time.Time
		dst  *decimal.Decimal
	}{
		{startOfDay, &m.TodaySales},
		{startOfWeek, &m.WeekSales},
		{startOfMonth, &m.MonthSales},
		{startOfYear, &m.YearSales},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range windows {
		g.Go(func() error {
			sum, err := s.repo.SumTotalsInRange(gctx, w.from, endOfDay)
			if err != nil {
				return errors.Wrap(err, "sum totals")
			}
			*w.dst = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
