package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validation errors for product input.
var (
	ErrNameRequired  = errors.New("name is required")
	ErrSKURequired   = errors.New("sku is required")
	ErrNegativePrice = errors.New("price must not be negative")
)

// Service encapsulates product CRUD logic on top of the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a product Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateRequest holds the mutable product fields accepted on create and update.
type CreateRequest struct {
	SKU           string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity *int
	Category      string
	ImageURL      string
	Weight        *decimal.Decimal
	Dimensions    string
}

func (r CreateRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(r.SKU) == "" {
		return ErrSKURequired
	}
	if r.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Create registers a new active product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Weight:        req.Weight,
		Dimensions:    req.Dimensions,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update replaces the mutable fields of an existing product. Note that price
// changes only affect future orders; existing order items keep their snapshot.
func (s *Service) Update(ctx context.Context, id int64, req CreateRequest) (*Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.SKU = req.SKU
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.StockQuantity = req.StockQuantity
	p.Category = req.Category
	p.ImageURL = req.ImageURL
	p.Weight = req.Weight
	p.Dimensions = req.Dimensions
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// GetByID returns a single product.
func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a product that is not referenced by any order item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, p ListParams) ([]Product, int64, error) {
	return s.repo.List(ctx, p)
}

// Search returns a page of products whose name contains the query,
// case-insensitively.
func (s *Service) Search(ctx context.Context, query string, page, size int) ([]Product, int64, error) {
	return s.repo.SearchByName(ctx, query, page, size)
}

// ByCategory returns a page of products in the given category.
func (s *Service) ByCategory(ctx context.Context, category string, page, size int) ([]Product, int64, error) {
	return s.repo.ByCategory(ctx, category, page, size)
}

// Categories returns the distinct product categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}
