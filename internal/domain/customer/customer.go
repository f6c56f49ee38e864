package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates customer account states.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBlocked  Status = "BLOCKED"
)

var (
	// ErrNotFound is returned when a requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrEmailTaken is returned when a customer email is already registered.
	ErrEmailTaken = errors.New("email already exists")
	// ErrReferenced is returned when deleting a customer that still has orders.
	ErrReferenced = errors.New("customer is referenced by orders")
)

// Customer represents a buyer. TotalSpent and TotalOrders are derived cache
// columns maintained by the order engine on order create and delete; they are
// not recomputed here.
type Customer struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	Company     string
	Address     string
	City        string
	State       string
	ZipCode     string
	Country     string
	Notes       string
	Status      Status
	TotalSpent  decimal.Decimal
	TotalOrders int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListParams controls pagination and sorting for customer listings.
type ListParams struct {
	Page      int
	Size      int
	SortBy    string
	Ascending bool
}

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, p ListParams) ([]Customer, int64, error)
	SearchByName(ctx context.Context, query string, page, size int) ([]Customer, int64, error)
	TopBySpent(ctx context.Context, limit int) ([]Customer, error)
}
