package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
	"github.com/ordway/salesdesk/internal/domain/product"
)

const orderColumns = `o.id, o.order_number, o.customer_id, c.name, c.email, o.status,
	o.subtotal, o.tax, o.shipping, o.total,
	o.shipping_address, o.billing_address, o.payment_method, o.notes,
	COALESCE(o.created_by, 0), o.created_at, o.updated_at`

const (
	getOrderSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`

	getOrderForUpdateSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
		FOR UPDATE OF o`

	listOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		ORDER BY %s
		LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT count(*) FROM orders`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	countOrdersByCustomerSQL = `SELECT count(*) FROM orders WHERE customer_id = $1`

	listOrdersByStatusSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.status = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	countOrdersByStatusSQL = `SELECT count(*) FROM orders WHERE status = $1`

	searchOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.order_number ILIKE '%' || $1 || '%'
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	countSearchOrdersSQL = `SELECT count(*)
		FROM orders WHERE order_number ILIKE '%' || $1 || '%'`

	itemsForOrdersSQL = `SELECT i.id, i.order_id, i.product_id, p.name, p.sku,
			i.quantity, i.price, i.total
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id`

	insertOrderSQL = `INSERT INTO orders (order_number, customer_id, status,
			subtotal, tax, shipping, total,
			shipping_address, billing_address, payment_method, notes,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	insertItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	updateOrderSQL = `UPDATE orders SET status = $2, shipping = $3, total = $4,
			shipping_address = $5, billing_address = $6,
			payment_method = $7, notes = $8, updated_at = $9
		WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	productsForUpdateSQL = `SELECT id, sku, name, description, price, stock_quantity,
			category, image_url, weight, dimensions, is_active, created_at, updated_at
		FROM products WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	customerForUpdateSQL = `SELECT ` + customerColumns + `
		FROM customers WHERE id = $1
		FOR UPDATE`

	userExistsSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	adjustStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity IS NOT NULL`

	adjustAggregatesSQL = `UPDATE customers
		SET total_orders = GREATEST(total_orders + $2, 0),
			total_spent = GREATEST(total_spent + $3, 0),
			updated_at = now()
		WHERE id = $1`
)

// orderSortColumns whitelists the API sort fields for order listings.
var orderSortColumns = map[string]string{
	"createdAt":   "o.created_at",
	"updatedAt":   "o.updated_at",
	"orderNumber": "o.order_number",
	"status":      "o.status",
	"total":       "o.total",
}

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// WithTx runs fn inside a read-committed transaction. Any error from fn rolls
// the transaction back and is returned as-is.
func (s *OrderStore) WithTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		func(pgtx pgx.Tx) error {
			return fn(&orderTx{tx: pgtx})
		})
}

// GetByID returns an order with its items eager-loaded.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	if err := attachItems(ctx, s.pool, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns one page of orders plus the total row count.
func (s *OrderStore) List(ctx context.Context, p order.ListParams) ([]order.Order, int64, error) {
	col, ok := orderSortColumns[p.SortBy]
	if !ok {
		col = "o.created_at"
	}
	dir := "DESC"
	if p.Ascending {
		dir = "ASC"
	}
	query := fmt.Sprintf(listOrdersSQL, col+" "+dir)

	return s.page(ctx, query, countOrdersSQL,
		[]any{p.Size, p.Page * p.Size}, nil)
}

// ListByCustomer returns one page of a customer's orders, newest first.
func (s *OrderStore) ListByCustomer(ctx context.Context, customerID int64, page, size int) ([]order.Order, int64, error) {
	return s.page(ctx, listOrdersByCustomerSQL, countOrdersByCustomerSQL,
		[]any{customerID, size, page * size}, []any{customerID})
}

// ListByStatus returns one page of orders in the given status, newest first.
func (s *OrderStore) ListByStatus(ctx context.Context, status order.Status, page, size int) ([]order.Order, int64, error) {
	return s.page(ctx, listOrdersByStatusSQL, countOrdersByStatusSQL,
		[]any{string(status), size, page * size}, []any{string(status)})
}

// SearchByNumber returns one page of orders whose number contains the query.
func (s *OrderStore) SearchByNumber(ctx context.Context, query string, page, size int) ([]order.Order, int64, error) {
	return s.page(ctx, searchOrdersSQL, countSearchOrdersSQL,
		[]any{query, size, page * size}, []any{query})
}

// page runs a listing query plus its count query and attaches items to the
// returned orders in a single extra round trip.
func (s *OrderStore) page(ctx context.Context, listSQL, countSQL string, listArgs, countArgs []any) ([]order.Order, int64, error) {
	rows, err := s.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	var total int64
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := attachItems(ctx, s.pool, refs); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachItems loads the items of all given orders in one query and groups
// them onto their orders.
func attachItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx, itemsForOrdersSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}

	for _, item := range items {
		o := byID[item.OrderID]
		o.Items = append(o.Items, item)
	}
	return nil
}

// orderTx implements order.Tx on top of a pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*orderTx)(nil)

func (t *orderTx) ProductsForUpdate(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := t.tx.Query(ctx, productsForUpdateSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (t *orderTx) CustomerForUpdate(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := t.tx.Query(ctx, customerForUpdateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking customer %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("locking customer %d: %w", id, err)
	}
	return &c, nil
}

func (t *orderTx) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, userExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user %d: %w", id, err)
	}
	return exists, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber, o.CustomerID, string(o.Status),
		o.Subtotal, o.Tax, nullDecimal(o.Shipping), o.Total,
		o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.Notes,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if violation(err, codeUniqueViolation, "orders_order_number_key") {
			return order.ErrNumberCollision
		}
		return fmt.Errorf("inserting order %q: %w", o.OrderNumber, err)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []order.Item) error {
	for i := range items {
		err := t.tx.QueryRow(ctx, insertItemSQL,
			orderID, items[i].ProductID, items[i].Quantity, items[i].Price, items[i].Total,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("inserting item for product %d: %w", items[i].ProductID, err)
		}
	}
	return nil
}

func (t *orderTx) AdjustProductStock(ctx context.Context, productID int64, delta int) error {
	if _, err := t.tx.Exec(ctx, adjustStockSQL, productID, delta); err != nil {
		return fmt.Errorf("adjusting stock for product %d: %w", productID, err)
	}
	return nil
}

func (t *orderTx) AdjustCustomerAggregates(ctx context.Context, customerID int64, orders int, spent decimal.Decimal) error {
	if _, err := t.tx.Exec(ctx, adjustAggregatesSQL, customerID, orders, spent); err != nil {
		return fmt.Errorf("adjusting aggregates for customer %d: %w", customerID, err)
	}
	return nil
}

func (t *orderTx) OrderForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := t.tx.Query(ctx, getOrderForUpdateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %d: %w", id, err)
	}
	if err := attachItems(ctx, t.tx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *orderTx) UpdateOrder(ctx context.Context, o *order.Order) error {
	tag, err := t.tx.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), nullDecimal(o.Shipping), o.Total,
		o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.Notes, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (t *orderTx) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		status   string
		shipping decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &status,
		&o.Subtotal, &o.Tax, &shipping, &o.Total,
		&o.ShippingAddress, &o.BillingAddress, &o.PaymentMethod, &o.Notes,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	if shipping.Valid {
		o.Shipping = &shipping.Decimal
	}
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductSKU,
		&item.Quantity, &item.Price, &item.Total,
	)
	return item, err
}

// nullDecimal converts an optional amount to its NULL-aware column value.
func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
