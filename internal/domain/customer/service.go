package customer

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Validation errors for customer input.
var (
	ErrNameRequired = errors.New("name is required")
	ErrInvalidEmail = errors.New("email is not valid")
)

// Service encapsulates customer CRUD logic on top of the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a customer Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateRequest holds the mutable customer fields accepted on create and update.
type CreateRequest struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Address string
	City    string
	State   string
	ZipCode string
	Country string
	Notes   string
	Status  Status
}

func (r CreateRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Create registers a new customer with zeroed aggregates.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	now := s.now().UTC()
	c := &Customer{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		Notes:     req.Notes,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}

// Update replaces the mutable fields of an existing customer. Aggregates are
// left untouched; only the order engine writes them.
func (s *Service) Update(ctx context.Context, id int64, req CreateRequest) (*Customer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = req.Name
	c.Email = req.Email
	c.Phone = req.Phone
	c.Company = req.Company
	c.Address = req.Address
	c.City = req.City
	c.State = req.State
	c.ZipCode = req.ZipCode
	c.Country = req.Country
	c.Notes = req.Notes
	if req.Status != "" {
		c.Status = req.Status
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update customer")
	}
	return c, nil
}

// GetByID returns a single customer.
func (s *Service) GetByID(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a customer. Customers that still have orders cannot be
// deleted; the repository reports ErrReferenced.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of customers.
func (s *Service) List(ctx context.Context, p ListParams) ([]Customer, int64, error) {
	return s.repo.List(ctx, p)
}

// Search returns a page of customers whose name contains the query,
// case-insensitively.
func (s *Service) Search(ctx context.Context, query string, page, size int) ([]Customer, int64, error) {
	return s.repo.SearchByName(ctx, query, page, size)
}

// Top returns the customers ranked by lifetime spend, highest first.
func (s *Service) Top(ctx context.Context, limit int) ([]Customer, error) {
	return s.repo.TopBySpent(ctx, limit)
}
