// Command catalog-import loads a product catalog export into the database.
// The export is one or more gzip-compressed files of JSON lines, one product
// per line. Files are scanned concurrently; a bloom filter drops repeated
// SKUs without holding every key in memory, at the cost of a small chance of
// skipping a new SKU, and the upsert keeps reruns idempotent.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ordway/salesdesk/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 500
	progressEvery = 100_000
)

// catalogProduct is one line of the export file.
type catalogProduct struct {
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

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog export files")
	flag.StringVar(&pattern, "pattern", "catalog*.jsonl.gz", "glob pattern for export files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, pattern, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "expand glob")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s in %s", pattern, dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("importing catalog", slog.Int("files", len(files)))

	products := make(chan catalogProduct, batchSize)

	g, ctx := errgroup.WithContext(ctx)

	// Readers: one goroutine per file, parse lines into the channel.
	readers, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		readers.Go(readCatalogFile(ctx, f, products))
	}
	g.Go(func() error {
		defer close(products)
		return readers.Wait()
	})

	// Writer: dedupe by SKU and upsert in batches. First occurrence wins.
	g.Go(func() error {
		return writeProducts(ctx, pool, products)
	})

	return g.Wait()
}

func readCatalogFile(ctx context.Context, path string, out chan<- catalogProduct) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			p, err := parseProduct(line)
			if err != nil {
				return errors.Wrapf(err, "parse line %d of %s", count+1, path)
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("read progress", slog.String("file", path), slog.Uint64("lines", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("lines", count))
		return nil
	}
}

// parseProduct decodes one JSON line. Unknown fields are skipped so exports
// from newer versions still import.
func parseProduct(line []byte) (catalogProduct, error) {
	var p catalogProduct
	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sku":
			v, err := d.Str()
			p.SKU = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "description":
			v, err := d.Str()
			p.Description = v
			return err
		case "price":
			raw, err := d.Num()
			if err != nil {
				return err
			}
			p.Price, err = decimal.NewFromString(string(raw))
			return err
		case "stockQuantity":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.StockQuantity = &v
			return nil
		case "category":
			v, err := d.Str()
			p.Category = v
			return err
		case "imageUrl":
			v, err := d.Str()
			p.ImageURL = v
			return err
		case "weight":
			if d.Next() == jx.Null {
				return d.Null()
			}
			raw, err := d.Num()
			if err != nil {
				return err
			}
			w, err := decimal.NewFromString(string(raw))
			if err != nil {
				return err
			}
			p.Weight = &w
			return nil
		case "dimensions":
			v, err := d.Str()
			p.Dimensions = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return p, err
	}

	if p.SKU == "" {
		return p, errors.New("missing sku")
	}
	if p.Name == "" {
		return p, errors.New("missing name")
	}
	if p.Price.IsNegative() {
		return p, errors.New("negative price")
	}
	return p, nil
}

const upsertProductSQL = `
	INSERT INTO products (sku, name, description, price, stock_quantity, category, image_url, weight, dimensions, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
	ON CONFLICT (sku) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		stock_quantity = EXCLUDED.stock_quantity,
		category = EXCLUDED.category,
		image_url = EXCLUDED.image_url,
		weight = EXCLUDED.weight,
		dimensions = EXCLUDED.dimensions,
		updated_at = now()`

func writeProducts(ctx context.Context, pool *pgxpool.Pool, products <-chan catalogProduct) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var (
		batch    pgx.Batch
		written  uint64
		duplSKUs uint64
	)

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, &batch).Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		written += uint64(batch.Len())
		batch = pgx.Batch{}
		if written%progressEvery < batchSize {
			slog.Info("write progress", slog.Uint64("written", written))
		}
		return nil
	}

	for p := range products {
		if seen.TestAndAddString(p.SKU) {
			duplSKUs++
			continue
		}

		var weight decimal.NullDecimal
		if p.Weight != nil {
			weight = decimal.NullDecimal{Decimal: *p.Weight, Valid: true}
		}
		batch.Queue(upsertProductSQL,
			p.SKU, p.Name, p.Description, p.Price, p.StockQuantity,
			p.Category, p.ImageURL, weight, p.Dimensions,
		)

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("catalog written", slog.Uint64("products", written), slog.Uint64("duplicate_skus", duplSKUs))
	return nil
}
