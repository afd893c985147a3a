package importer

import (
	"context"
	"strings"
	"testing"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
)

type stubProductRepo struct {
	items []domain.Product
}

type stubCategoryRepo struct {
	items []domain.Category
}

type stubContent struct {
	values map[string]string
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubCategoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.items = append(s.items, c)
	return &c, nil
}

func (s *stubContent) Upsert(_ context.Context, key, value string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `id,title,price,image_url,category,stock,discount_price,discount_percentage
bac-60,Bac 60L,"89,90",https://cdn.example.com/bac.jpg,aquariums,4,,10
filtre-int,Filtre interne,25,,filtration,,19.90,
,,,,,,,
pompe-800,Pompe 800L/h,39,,filtration,0,,
`
	repo := &stubProductRepo{}
	catRepo := &stubCategoryRepo{}
	content := &stubContent{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, catRepo, content)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 products imported, got %d", count)
	}
	if len(repo.items) != 3 {
		t.Fatalf("expected 3 products saved, got %d", len(repo.items))
	}
	first := repo.items[0]
	if first.ID != "bac-60" || first.Title != "Bac 60L" || first.Price == nil || !first.Price.Equal(decimal.RequireFromString("89.90")) || first.CategoryKey != "aquariums" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if len(catRepo.items) != 2 { // aquariums, filtration
		t.Fatalf("expected 2 category upserts, got %d", len(catRepo.items))
	}
	if catRepo.items[0].Name != "Aquariums" {
		t.Fatalf("expected title-cased category name, got %q", catRepo.items[0].Name)
	}

	want := map[string]string{
		"product_bac-60_price":               "89.90",
		"product_bac-60_stock":               "4",
		"product_bac-60_discount_percentage": "10",
		"product_filtre-int_price":           "25.00",
		"product_filtre-int_discount_price":  "19.90",
		"product_pompe-800_price":            "39.00",
		"product_pompe-800_stock":            "0",
	}
	for key, value := range want {
		if got := content.values[key]; got != value {
			t.Fatalf("content %s: expected %q, got %q", key, value, got)
		}
	}
	if _, ok := content.values["product_filtre-int_stock"]; ok {
		t.Fatalf("empty stock must not be written")
	}
}

func TestCSVImporter_RejectsBadPrice(t *testing.T) {
	csvData := `id,title,price
bac-60,Bac 60L,gratuit
`
	imp := NewCSVImporter(strings.NewReader(csvData), &stubProductRepo{}, nil, nil)
	if _, err := imp.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row error, got %v", err)
	}
}

func TestCSVImporter_RunCategoriesFile(t *testing.T) {
	csvData := `key,name,slug
eclairage,Éclairage,eclairage
plantes-aquatiques,,
,Sans clé,
`
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, catRepo, nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 categories imported, got %d", count)
	}
	if catRepo.items[0].Name != "Éclairage" || catRepo.items[0].Slug != "eclairage" {
		t.Fatalf("unexpected first category %+v", catRepo.items[0])
	}
	if catRepo.items[1].Name != "Plantes Aquatiques" {
		t.Fatalf("expected name derived from key, got %+v", catRepo.items[1])
	}
}

func TestDetectKind(t *testing.T) {
	productCSV := `id,title,price
bac-60,Bac 60L,89.90`
	categoryCSV := `key,name,slug
eclairage,Éclairage,eclairage`

	kind, err := DetectKind(strings.NewReader(productCSV))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader(categoryCSV))
	if err != nil {
		t.Fatalf("detect category kind: %v", err)
	}
	if kind != KindCategories {
		t.Fatalf("expected category kind, got %s", kind)
	}
}
