// Command seed-db loads the product catalog into PostgreSQL: a small JSON
// seed file for local development, plus optional gzipped catalog feed files
// ingested concurrently.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/uncoverstore/api/internal/repository"
)

const upsertProductSQL = `INSERT INTO products (id, name, description, price, image, stock)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		image = EXCLUDED.image,
		stock = EXCLUDED.stock`

type productJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Stock       int64  `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		feedDir      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&feedDir, "feed-dir", "", "optional directory of gzipped catalog feed files (*.json.gz)")
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

	if err := run(ctx, databaseURL, productsFile, feedDir); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, feedDir string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if feedDir != "" {
		if err := ingestFeeds(ctx, pool, feedDir); err != nil {
			return errors.Wrap(err, "ingest feeds")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products file")
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return err
		}
	}

	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

// ingestFeeds loads every *.json.gz file in dir concurrently. Each file is a
// JSON array of products in the same shape as the seed file.
func ingestFeeds(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json.gz"))
	if err != nil {
		return errors.Wrap(err, "list feed files")
	}
	if len(files) == 0 {
		slog.Info("no feed files found", slog.String("dir", dir))
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			n, err := ingestFeedFile(ctx, pool, file)
			if err != nil {
				return errors.Wrapf(err, "ingest %s", file)
			}
			slog.Info("ingested feed", slog.String("file", file), slog.Int("count", n))
			return nil
		})
	}
	return g.Wait()
}

func ingestFeedFile(ctx context.Context, pool *pgxpool.Pool, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	var products []productJSON
	if err := json.NewDecoder(gz).Decode(&products); err != nil {
		return 0, errors.Wrap(err, "decode")
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productJSON) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Stock < 0 {
		p.Stock = 0
	}

	_, err := pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Image, p.Stock,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %s", p.ID)
	}
	return nil
}
