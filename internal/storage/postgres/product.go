package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/product"
)

const productColumns = `id, sku, name, description, price, stock_quantity,
	category, image_url, weight, dimensions, is_active, created_at, updated_at`

const (
	insertProductSQL = `INSERT INTO products (sku, name, description, price, stock_quantity,
			category, image_url, weight, dimensions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	updateProductSQL = `UPDATE products SET sku = $2, name = $3, description = $4,
			price = $5, stock_quantity = $6, category = $7, image_url = $8,
			weight = $9, dimensions = $10, updated_at = $11
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		ORDER BY %s LIMIT $1 OFFSET $2`

	countProductsSQL = `SELECT count(*) FROM products`

	searchProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT $2 OFFSET $3`

	countSearchProductsSQL = `SELECT count(*) FROM products
		WHERE name ILIKE '%' || $1 || '%'`

	productsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT $2 OFFSET $3`

	countProductsByCategorySQL = `SELECT count(*) FROM products
		WHERE category ILIKE '%' || $1 || '%'`

	categoriesSQL = `SELECT DISTINCT category FROM products
		WHERE category <> '' ORDER BY category`
)

// productSortColumns whitelists the API sort fields for product listings.
var productSortColumns = map[string]string{
	"name":      "name",
	"sku":       "sku",
	"price":     "price",
	"category":  "category",
	"createdAt": "created_at",
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product and fills in its generated ID.
// Returns product.ErrSKUTaken on a SKU conflict.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, insertProductSQL,
		p.SKU, p.Name, p.Description, p.Price, p.StockQuantity,
		p.Category, p.ImageURL, nullDecimal(p.Weight), p.Dimensions, p.IsActive,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if violation(err, codeUniqueViolation, "products_sku_key") {
			return product.ErrSKUTaken
		}
		return fmt.Errorf("creating product %q: %w", p.SKU, err)
	}
	return nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Update persists the product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.SKU, p.Name, p.Description, p.Price, p.StockQuantity,
		p.Category, p.ImageURL, nullDecimal(p.Weight), p.Dimensions, p.UpdatedAt,
	)
	if err != nil {
		if violation(err, codeUniqueViolation, "products_sku_key") {
			return product.ErrSKUTaken
		}
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product that no order item references; otherwise the
// foreign key reports product.ErrReferenced.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if violation(err, codeForeignKeyViolation, "") {
			return product.ErrReferenced
		}
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// List returns one page of products plus the total row count.
func (r *ProductRepository) List(ctx context.Context, p product.ListParams) ([]product.Product, int64, error) {
	col, ok := productSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if p.Ascending {
		dir = "ASC"
	}
	query := fmt.Sprintf(listProductsSQL, col+" "+dir)

	return r.page(ctx, query, countProductsSQL,
		[]any{p.Size, p.Page * p.Size}, nil)
}

// SearchByName returns one page of products whose name contains the query.
func (r *ProductRepository) SearchByName(ctx context.Context, query string, page, size int) ([]product.Product, int64, error) {
	return r.page(ctx, searchProductsSQL, countSearchProductsSQL,
		[]any{query, size, page * size}, []any{query})
}

// ByCategory returns one page of products whose category contains the query.
func (r *ProductRepository) ByCategory(ctx context.Context, category string, page, size int) ([]product.Product, int64, error) {
	return r.page(ctx, productsByCategorySQL, countProductsByCategorySQL,
		[]any{category, size, page * size}, []any{category})
}

// Categories returns the distinct non-empty product categories.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, categoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var c string
		err := row.Scan(&c)
		return c, err
	})
}

func (r *ProductRepository) page(ctx context.Context, listSQL, countSQL string, listArgs, countArgs []any) ([]product.Product, int64, error) {
	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}
	return products, total, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p      product.Product
		weight decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Category, &p.ImageURL, &weight, &p.Dimensions, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if weight.Valid {
		p.Weight = &weight.Decimal
	}
	return p, err
}
