package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordway/salesdesk/internal/domain/customer"
)

const customerColumns = `id, name, email, phone, company, address, city, state,
	zip_code, country, notes, status, total_spent, total_orders, created_at, updated_at`

const (
	insertCustomerSQL = `INSERT INTO customers (name, email, phone, company, address,
			city, state, zip_code, country, notes, status,
			total_spent, total_orders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, 0, $12, $13)
		RETURNING id`

	getCustomerSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	updateCustomerSQL = `UPDATE customers SET name = $2, email = $3, phone = $4,
			company = $5, address = $6, city = $7, state = $8, zip_code = $9,
			country = $10, notes = $11, status = $12, updated_at = $13
		WHERE id = $1`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`

	listCustomersSQL = `SELECT ` + customerColumns + ` FROM customers
		ORDER BY %s LIMIT $1 OFFSET $2`

	countCustomersSQL = `SELECT count(*) FROM customers`

	searchCustomersSQL = `SELECT ` + customerColumns + ` FROM customers
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT $2 OFFSET $3`

	countSearchCustomersSQL = `SELECT count(*) FROM customers
		WHERE name ILIKE '%' || $1 || '%'`

	topCustomersSQL = `SELECT ` + customerColumns + ` FROM customers
		ORDER BY total_spent DESC LIMIT $1`
)

// customerSortColumns whitelists the API sort fields for customer listings.
var customerSortColumns = map[string]string{
	"name":        "name",
	"email":       "email",
	"createdAt":   "created_at",
	"totalSpent":  "total_spent",
	"totalOrders": "total_orders",
}

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create persists a new customer with zeroed aggregates and fills in its
// generated ID. Returns customer.ErrEmailTaken on an email conflict.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx, insertCustomerSQL,
		c.Name, c.Email, c.Phone, c.Company, c.Address,
		c.City, c.State, c.ZipCode, c.Country, c.Notes, string(c.Status),
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if violation(err, codeUniqueViolation, "customers_email_key") {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("creating customer %q: %w", c.Email, err)
	}
	return nil
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// Update persists the customer's mutable fields. The aggregate columns are
// never written here; only the order engine touches them.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := r.pool.Exec(ctx, updateCustomerSQL,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Address,
		c.City, c.State, c.ZipCode, c.Country, c.Notes, string(c.Status), c.UpdatedAt,
	)
	if err != nil {
		if violation(err, codeUniqueViolation, "customers_email_key") {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("updating customer %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Delete removes a customer. Customers still referenced by orders cannot be
// deleted; the foreign key reports customer.ErrReferenced.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCustomerSQL, id)
	if err != nil {
		if violation(err, codeForeignKeyViolation, "") {
			return customer.ErrReferenced
		}
		return fmt.Errorf("deleting customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// List returns one page of customers plus the total row count.
func (r *CustomerRepository) List(ctx context.Context, p customer.ListParams) ([]customer.Customer, int64, error) {
	col, ok := customerSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if p.Ascending {
		dir = "ASC"
	}
	query := fmt.Sprintf(listCustomersSQL, col+" "+dir)

	rows, err := r.pool.Query(ctx, query, p.Size, p.Page*p.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countCustomersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting customers: %w", err)
	}
	return customers, total, nil
}

// SearchByName returns one page of customers whose name contains the query.
func (r *CustomerRepository) SearchByName(ctx context.Context, query string, page, size int) ([]customer.Customer, int64, error) {
	rows, err := r.pool.Query(ctx, searchCustomersSQL, query, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("searching customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, 0, fmt.Errorf("searching customers: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countSearchCustomersSQL, query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting customers: %w", err)
	}
	return customers, total, nil
}

// TopBySpent returns the customers ranked by lifetime spend, highest first.
func (r *CustomerRepository) TopBySpent(ctx context.Context, limit int) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, topCustomersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var (
		c      customer.Customer
		status string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.City, &c.State,
		&c.ZipCode, &c.Country, &c.Notes, &status, &c.TotalSpent, &c.TotalOrders,
		&c.CreatedAt, &c.UpdatedAt,
	)
	c.Status = customer.Status(status)
	return c, err
}
