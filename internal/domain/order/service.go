package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/product"
	"github.com/ordway/salesdesk/internal/domain/user"
)

// numberAttempts bounds the retries on order number collisions.
const numberAttempts = 3

// Service orchestrates the order lifecycle. Every mutation runs inside a
// single store transaction so that the order row, its items, product stock,
// and the customer's derived aggregates commit together or not at all.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an order Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for creating an order. CreatedBy is the
// authenticated user placing the order.
type CreateRequest struct {
	CustomerID      int64
	Items           []ItemRequest
	Status          Status
	Shipping        *decimal.Decimal
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	Notes           string
	CreatedBy       int64
}

// UpdateRequest holds the mutable order fields. Items are deliberately not
// editable after creation.
type UpdateRequest struct {
	Status          Status
	Shipping        *decimal.Decimal
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	Notes           string
}

// Create builds a new order: items are snapshotted at the current product
// price, totals computed, stock decremented on every managed product, and the
// customer's aggregates incremented. The order number is retried a bounded
// number of times if it collides with an existing one.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}
	if req.Shipping != nil && req.Shipping.IsNegative() {
		return nil, ErrNegativeShipping
	}

	status := req.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, &UnknownStatusError{Status: status}
	}

	var created *Order
	for attempt := 0; attempt < numberAttempts; attempt++ {
		o := s.buildOrder(req, status)

		err := s.store.WithTx(ctx, func(tx Tx) error {
			return s.createInTx(ctx, tx, req, o)
		})
		if errors.Is(err, ErrNumberCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}
		created = o
		break
	}
	if created == nil {
		return nil, ErrNumberCollision
	}
	return created, nil
}

// buildOrder assembles the unsaved order skeleton, including a fresh
// millisecond-based order number.
func (s *Service) buildOrder(req CreateRequest, status Status) *Order {
	now := s.now().UTC()
	return &Order{
		OrderNumber:     fmt.Sprintf("ORD-%d", now.UnixMilli()),
		CustomerID:      req.CustomerID,
		Status:          status,
		Shipping:        req.Shipping,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// createInTx performs the transactional part of order creation. Lock order:
// products ascending by ID first, the customer last, so concurrent creators
// touching overlapping product sets cannot deadlock.
func (s *Service) createInTx(ctx context.Context, tx Tx, req CreateRequest, o *Order) error {
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if !slices.Contains(ids, item.ProductID) {
			ids = append(ids, item.ProductID)
		}
	}
	slices.Sort(ids)

	locked, err := tx.ProductsForUpdate(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "lock products")
	}
	products := make(map[int64]*product.Product, len(locked))
	for i := range locked {
		products[locked[i].ID] = &locked[i]
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return &ProductNotFoundError{ProductID: id}
		}
	}

	cust, err := tx.CustomerForUpdate(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return customer.ErrNotFound
		}
		return errors.Wrap(err, "lock customer")
	}

	ok, err := tx.UserExists(ctx, req.CreatedBy)
	if err != nil {
		return errors.Wrap(err, "check user")
	}
	if !ok {
		return user.ErrNotFound
	}

	// Requested quantity per product; a product listed twice is decremented
	// once with the combined quantity.
	needed := make(map[int64]int, len(ids))
	for _, item := range req.Items {
		needed[item.ProductID] += item.Quantity
	}
	for _, id := range ids {
		p := products[id]
		if !p.Managed() {
			continue
		}
		if *p.StockQuantity < needed[id] {
			return &InsufficientStockError{
				ProductID: id,
				Requested: needed[id],
				Available: *p.StockQuantity,
			}
		}
	}

	o.Items = make([]Item, len(req.Items))
	for i, item := range req.Items {
		p := products[item.ProductID]
		o.Items[i] = Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Quantity:    item.Quantity,
			Price:       p.Price,
			Total:       round2(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		}
	}
	o.calculateTotals()
	o.CustomerName = cust.Name
	o.CustomerEmail = cust.Email

	if err := tx.InsertOrder(ctx, o); err != nil {
		return err
	}
	if err := tx.InsertItems(ctx, o.ID, o.Items); err != nil {
		return errors.Wrap(err, "insert items")
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	for _, id := range ids {
		if products[id].Managed() {
			if err := tx.AdjustProductStock(ctx, id, -needed[id]); err != nil {
				return errors.Wrapf(err, "decrement stock for product %d", id)
			}
		}
	}

	if err := tx.AdjustCustomerAggregates(ctx, cust.ID, 1, o.Total); err != nil {
		return errors.Wrap(err, "update customer aggregates")
	}
	return nil
}

// Update mutates an order's status, shipping cost, addresses, payment method,
// and notes. Status changes must follow the lifecycle. A shipping change
// recomputes the total; subtotal and tax stay as created. The customer's
// totalSpent is intentionally not adjusted here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Order, error) {
	if req.Shipping != nil && req.Shipping.IsNegative() {
		return nil, ErrNegativeShipping
	}

	var updated *Order
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != "" && req.Status != o.Status {
			if !req.Status.Valid() {
				return &UnknownStatusError{Status: req.Status}
			}
			if !CanTransition(o.Status, req.Status) {
				return &InvalidTransitionError{From: o.Status, To: req.Status}
			}
			o.Status = req.Status
		}

		o.Shipping = req.Shipping
		o.ShippingAddress = req.ShippingAddress
		o.BillingAddress = req.BillingAddress
		o.PaymentMethod = req.PaymentMethod
		o.Notes = req.Notes
		o.UpdatedAt = s.now().UTC()
		o.calculateTotals()

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reverses a committed order: each item's quantity is re-added to its
// product's stock (when managed), the customer's aggregates are decremented
// with a clamp at zero, and the order row plus its items are removed. All of
// it commits atomically.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Restore stock per product, ascending by ID to keep the same lock
		// order as creation.
		restore := make(map[int64]int, len(o.Items))
		for _, item := range o.Items {
			restore[item.ProductID] += item.Quantity
		}
		ids := make([]int64, 0, len(restore))
		for pid := range restore {
			ids = append(ids, pid)
		}
		slices.Sort(ids)

		locked, err := tx.ProductsForUpdate(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "lock products")
		}
		for _, p := range locked {
			if !p.Managed() {
				continue
			}
			if err := tx.AdjustProductStock(ctx, p.ID, restore[p.ID]); err != nil {
				return errors.Wrapf(err, "restore stock for product %d", p.ID)
			}
		}

		if err := tx.AdjustCustomerAggregates(ctx, o.CustomerID, -1, o.Total.Neg()); err != nil {
			return errors.Wrap(err, "update customer aggregates")
		}

		if err := tx.DeleteOrder(ctx, id); err != nil {
			return errors.Wrap(err, "delete order")
		}
		return nil
	})
}

// GetByID returns a single order with its items.
func (s *Service) GetByID(ctx context.Context, id int64) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, p ListParams) ([]Order, int64, error) {
	return s.store.List(ctx, p)
}

// ListByCustomer returns a page of the customer's orders.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page, size int) ([]Order, int64, error) {
	return s.store.ListByCustomer(ctx, customerID, page, size)
}

// ListByStatus returns a page of orders in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status, page, size int) ([]Order, int64, error) {
	if !status.Valid() {
		return nil, 0, &UnknownStatusError{Status: status}
	}
	return s.store.ListByStatus(ctx, status, page, size)
}

// Search returns a page of orders whose number contains the query,
// case-insensitively.
func (s *Service) Search(ctx context.Context, query string, page, size int) ([]Order, int64, error) {
	return s.store.SearchByNumber(ctx, query, page, size)
}
