// Command import loads a product catalog CSV into the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomlabs/storefront/internal/config"
	"github.com/ecomlabs/storefront/internal/importer"
	"github.com/ecomlabs/storefront/internal/repository"
	"github.com/ecomlabs/storefront/pkg/logger"
)

func main() {
	file := flag.String("file", "", "path to the products CSV file")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file products.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if cfg.Storage.Driver != "postgres" {
		fmt.Fprintln(os.Stderr, "import requires STORAGE_DRIVER=postgres; the memory driver seeds via PRODUCT_SEED_FILE instead")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	count, err := importer.New(store).ImportFile(ctx, *file)
	if err != nil {
		log.Error("import failed", "file", *file, "imported", count, "error", err)
		os.Exit(1)
	}

	log.Info("import finished", "file", *file, "imported", count)
}
