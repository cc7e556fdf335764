// Package importer loads catalog products from CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomlabs/storefront/internal/models"
	"github.com/ecomlabs/storefront/internal/repository"
)

// expected CSV header, in order.
var header = []string{"name", "category", "default_price", "quantity"}

// Importer creates products from CSV rows.
type Importer struct {
	products repository.ProductStore
}

// New creates an importer writing into the given store.
func New(products repository.ProductStore) *Importer {
	return &Importer{products: products}
}

// ImportFile imports all products from the CSV file at path and returns how
// many were created.
func (i *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

// Import reads CSV rows of the form name,category,default_price,quantity
// (header required) and creates one product per row. The first invalid row
// aborts the import.
func (i *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)

	head, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	if err := validateHeader(head); err != nil {
		return 0, err
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read csv row: %w", err)
		}

		product, err := parseRow(record)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", count+2, err)
		}
		if err := i.products.CreateProduct(ctx, product); err != nil {
			return count, fmt.Errorf("create product %q: %w", product.Name, err)
		}
		count++
	}
	return count, nil
}

func validateHeader(head []string) error {
	if len(head) != len(header) {
		return fmt.Errorf("expected header %v, got %v", header, head)
	}
	for i, col := range head {
		if strings.TrimSpace(strings.ToLower(col)) != header[i] {
			return fmt.Errorf("expected header %v, got %v", header, head)
		}
	}
	return nil
}

func parseRow(record []string) (*models.Product, error) {
	if len(record) != len(header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(header), len(record))
	}

	name := strings.TrimSpace(record[0])
	category := strings.TrimSpace(record[1])
	if name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	if category == "" {
		return nil, fmt.Errorf("category must not be empty")
	}

	price, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("invalid default_price %q", record[2])
	}
	quantity, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil || quantity < 0 {
		return nil, fmt.Errorf("invalid quantity %q", record[3])
	}

	return &models.Product{
		ID:                   uuid.New().String(),
		Name:                 name,
		Category:             category,
		DefaultPrice:         price,
		Quantity:             quantity,
		LastDemandMultiplier: 1.0,
	}, nil
}
