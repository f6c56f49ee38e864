package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/product"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyItems is returned when an order is created without line items.
	ErrEmptyItems = errors.New("items required")
	// ErrNegativeShipping is returned when a shipping cost below zero is supplied.
	ErrNegativeShipping = errors.New("shipping must not be negative")
	// ErrNumberCollision is returned when order number generation keeps
	// colliding with existing orders after the bounded retries.
	ErrNumberCollision = errors.New("order number collision")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a quantity below one.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// InsufficientStockError indicates a stock-managed product cannot cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Order represents a committed purchase binding one customer to one or more
// line items at snapshotted prices.
type Order struct {
	ID              int64
	OrderNumber     string
	CustomerID      int64
	CustomerName    string
	CustomerEmail   string
	Items           []Item
	Status          Status
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        *decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	Notes           string
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is a single order line. Price is the product's unit price at the
// instant the order was created and never changes afterwards.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	ProductSKU  string
	Quantity    int
	Price       decimal.Decimal
	Total       decimal.Decimal
}

// ListParams controls pagination and sorting for order listings.
type ListParams struct {
	Page      int
	Size      int
	SortBy    string
	Ascending bool
}

// Tx is the slice of gateway operations available inside a single database
// transaction. Implementations must take row locks in the documented order:
// products ascending by ID first, the customer last.
type Tx interface {
	// ProductsForUpdate loads and row-locks the given products, ordered by
	// ascending ID. Missing IDs are simply absent from the result.
	ProductsForUpdate(ctx context.Context, ids []int64) ([]product.Product, error)
	// CustomerForUpdate loads and row-locks a customer.
	CustomerForUpdate(ctx context.Context, id int64) (*customer.Customer, error)
	UserExists(ctx context.Context, id int64) (bool, error)

	// InsertOrder persists a new order row and fills in its generated ID.
	// Returns ErrNumberCollision when the order number is already taken.
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID int64, items []Item) error

	// AdjustProductStock adds delta to a managed product's stock quantity.
	AdjustProductStock(ctx context.Context, productID int64, delta int) error
	// AdjustCustomerAggregates adds the deltas to the customer's derived
	// totals, clamping both at zero.
	AdjustCustomerAggregates(ctx context.Context, customerID int64, orders int, spent decimal.Decimal) error

	// OrderForUpdate loads and row-locks an order together with its items.
	OrderForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error
	// DeleteOrder removes the order row; items go with it via cascade.
	DeleteOrder(ctx context.Context, id int64) error
}

// Store is the persistence gateway for orders. WithTx runs fn inside one
// database transaction: fn's error aborts the transaction and is returned
// unchanged.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, p ListParams) ([]Order, int64, error)
	ListByCustomer(ctx context.Context, customerID int64, page, size int) ([]Order, int64, error)
	ListByStatus(ctx context.Context, status Status, page, size int) ([]Order, int64, error)
	SearchByNumber(ctx context.Context, query string, page, size int) ([]Order, int64, error)
}
