package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrSKUTaken is returned when a product SKU is already registered.
	ErrSKUTaken = errors.New("sku already exists")
	// ErrReferenced is returned when deleting a product that appears in orders.
	ErrReferenced = errors.New("product is referenced by orders")
)

// Product represents a catalog item available for sale.
//
// StockQuantity is nullable: nil means stock is unmanaged and the order
// engine neither checks nor adjusts it. A value of zero means sold out.
type Product struct {
	ID            int64
	SKU           string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity *int
	Category      string
	ImageURL      string
	Weight        *decimal.Decimal
	Dimensions    string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Managed reports whether the product's stock is tracked.
func (p *Product) Managed() bool {
	return p.StockQuantity != nil
}

// ListParams controls pagination and sorting for product listings.
type ListParams struct {
	Page      int
	Size      int
	SortBy    string
	Ascending bool
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, p ListParams) ([]Product, int64, error)
	SearchByName(ctx context.Context, query string, page, size int) ([]Product, int64, error)
	ByCategory(ctx context.Context, category string, page, size int) ([]Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
}
