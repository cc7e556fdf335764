package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/ecomlabs/storefront/internal/repository"
)

func TestImport(t *testing.T) {
	store := repository.NewMemoryStore()
	imp := New(store)

	csvData := `name,category,default_price,quantity
Trail Boots,footwear,4500,120
Sun Hat,accessories,900,40
Rain Jacket,clothing,3200,0
`

	count, err := imp.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 products imported, got %d", count)
	}

	products, err := store.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products stored, got %d", len(products))
	}
	for _, p := range products {
		if p.ID == "" {
			t.Errorf("product %q has no ID", p.Name)
		}
		if p.LastDemandMultiplier != 1.0 {
			t.Errorf("product %q starts with multiplier %v, want 1.0", p.Name, p.LastDemandMultiplier)
		}
		if p.DynamicPrice != nil {
			t.Errorf("product %q should start without a dynamic price", p.Name)
		}
	}
}

func TestImport_HeaderValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing header", "Trail Boots,footwear,4500,120\n"},
		{"wrong column order", "category,name,default_price,quantity\nfootwear,Trail Boots,4500,120\n"},
		{"too few columns", "name,category,default_price\nTrail Boots,footwear,4500\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := New(repository.NewMemoryStore())
			if _, err := imp.Import(context.Background(), strings.NewReader(tt.data)); err == nil {
				t.Error("expected header error, got nil")
			}
		})
	}
}

func TestImport_InvalidRowAborts(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"empty name", ",footwear,4500,120"},
		{"empty category", "Trail Boots,,4500,120"},
		{"negative price", "Trail Boots,footwear,-1,120"},
		{"non-numeric price", "Trail Boots,footwear,abc,120"},
		{"negative quantity", "Trail Boots,footwear,4500,-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			imp := New(store)
			data := "name,category,default_price,quantity\nSun Hat,accessories,900,40\n" + tt.row + "\n"

			count, err := imp.Import(context.Background(), strings.NewReader(data))
			if err == nil {
				t.Fatal("expected row error, got nil")
			}
			// Rows before the bad one are already committed.
			if count != 1 {
				t.Errorf("expected 1 imported before failure, got %d", count)
			}
		})
	}
}

func TestImport_HeaderIsCaseInsensitive(t *testing.T) {
	imp := New(repository.NewMemoryStore())
	data := "Name, Category ,DEFAULT_PRICE,quantity\nTrail Boots,footwear,4500,120\n"

	count, err := imp.Import(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 product imported, got %d", count)
	}
}
