package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordway/salesdesk/internal/storage/postgres"
)

const (
	adminEmail     = "admin@salesdesk.local"
	adminFirstName = "Admin"
	adminLastName  = "User"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
		demoData     bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or SALESDESK_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SALESDESK_API_KEY_PEPPER env)")
	flag.BoolVar(&demoData, "demo-data", false, "also seed demo customers and products")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SALESDESK_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or SALESDESK_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SALESDESK_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper, demoData); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string, demoData bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	userID, err := seedAdminUser(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	if err := seedAPIKey(ctx, pool, userID, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if demoData {
		if err := seedDemoData(ctx, pool); err != nil {
			return errors.Wrap(err, "seed demo data")
		}
	}

	return nil
}

func seedAdminUser(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	slog.Info("seeding admin user", slog.String("email", adminEmail))

	const q = `
		INSERT INTO users (email, first_name, last_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
		RETURNING id`

	var id int64
	if err := pool.QueryRow(ctx, q, adminEmail, adminFirstName, adminLastName).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "upsert admin user")
	}

	slog.Info("upserted admin user", slog.Int64("id", id))
	return id, nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, userID int64, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	const q = `
		INSERT INTO api_keys (key_hash, name, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, user_id = EXCLUDED.user_id`

	if _, err := pool.Exec(ctx, q, keyHash, "Default admin key", userID); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("name", "Default admin key"), slog.Int64("user_id", userID))
	return nil
}

type demoCustomer struct {
	name, email, company, city, country string
}

type demoProduct struct {
	sku, name, category string
	price               string
	stock               int
}

func seedDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	customers := []demoCustomer{
		{name: "Acme Corporation", email: "purchasing@acme.example", company: "Acme Corporation", city: "Springfield", country: "US"},
		{name: "Globex Industries", email: "orders@globex.example", company: "Globex Industries", city: "Cypress Creek", country: "US"},
		{name: "Initech LLC", email: "supplies@initech.example", company: "Initech LLC", city: "Austin", country: "US"},
	}

	slog.Info("seeding demo customers", slog.Int("count", len(customers)))

	const customerQ = `
		INSERT INTO customers (name, email, company, city, country, status)
		VALUES ($1, $2, $3, $4, $5, 'ACTIVE')
		ON CONFLICT (email) DO NOTHING`

	for _, c := range customers {
		if _, err := pool.Exec(ctx, customerQ, c.name, c.email, c.company, c.city, c.country); err != nil {
			return errors.Wrapf(err, "insert customer %s", c.email)
		}
	}

	products := []demoProduct{
		{sku: "DESK-0001", name: "Standing Desk", category: "Furniture", price: "499.00", stock: 25},
		{sku: "CHAIR-0002", name: "Ergonomic Chair", category: "Furniture", price: "289.50", stock: 40},
		{sku: "LAMP-0003", name: "LED Desk Lamp", category: "Lighting", price: "39.99", stock: 120},
		{sku: "MON-0004", name: "27in 4K Monitor", category: "Electronics", price: "379.00", stock: 60},
		{sku: "KB-0005", name: "Mechanical Keyboard", category: "Electronics", price: "129.00", stock: 85},
	}

	slog.Info("seeding demo products", slog.Int("count", len(products)))

	const productQ = `
		INSERT INTO products (sku, name, price, stock_quantity, category, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (sku) DO NOTHING`

	for _, p := range products {
		if _, err := pool.Exec(ctx, productQ, p.sku, p.name, p.price, p.stock, p.category); err != nil {
			return errors.Wrapf(err, "insert product %s", p.sku)
		}
	}

	return nil
}
