package product

import (
	"context"
	"errors"
	"testing"

	"aquashop/internal/domain"
	"github.com/shopspring/decimal"
)

type stubRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubRepo) List(context.Context) ([]domain.Product, error) {
	if s.product == nil {
		return nil, s.err
	}
	return []domain.Product{*s.product}, s.err
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

type stubCatalog struct {
	info        *domain.PriceInfo
	stock       int
	limited     bool
	lastVariant domain.Variant
}

func (s *stubCatalog) Price(_ context.Context, _ string, variant domain.Variant) (*domain.PriceInfo, error) {
	s.lastVariant = variant
	return s.info, nil
}

func (s *stubCatalog) StockCeiling(context.Context, string, domain.Variant) (int, bool, error) {
	return s.stock, s.limited, nil
}

func TestOfferIncludesPriceAndStock(t *testing.T) {
	repo := &stubRepo{product: &domain.Product{ID: "bac-60", Title: "Bac 60L"}}
	catalog := &stubCatalog{info: domain.BasePrice(decimal.RequireFromString("89.90"), "price_1"), stock: 4, limited: true}
	svc := New(repo, catalog)

	variant := domain.MustParseVariant("Couleur:Noir")
	offer, err := svc.Offer(context.Background(), "bac-60", variant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastID != "bac-60" {
		t.Fatalf("expected lookup by id, got %q", repo.lastID)
	}
	if !catalog.lastVariant.Equal(variant) {
		t.Fatalf("expected variant forwarded, got %q", catalog.lastVariant.String())
	}
	if offer.Stock == nil || *offer.Stock != 4 {
		t.Fatalf("expected stock 4, got %v", offer.Stock)
	}
	if !offer.Price.Price.Equal(decimal.RequireFromString("89.90")) {
		t.Fatalf("unexpected price %s", offer.Price.Price)
	}
}

func TestOfferUnlimitedStock(t *testing.T) {
	svc := New(&stubRepo{product: &domain.Product{ID: "p"}}, &stubCatalog{info: domain.BasePrice(decimal.NewFromInt(1), "")})
	offer, err := svc.Offer(context.Background(), "p", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.Stock != nil {
		t.Fatalf("expected no stock limit, got %d", *offer.Stock)
	}
}

func TestPriceNotConfigured(t *testing.T) {
	svc := New(&stubRepo{}, &stubCatalog{})
	if _, err := svc.Price(context.Background(), "p", nil); !errors.Is(err, domain.ErrPriceNotConfigured) {
		t.Fatalf("expected ErrPriceNotConfigured, got %v", err)
	}
}

func TestOfferNotFound(t *testing.T) {
	svc := New(&stubRepo{err: domain.ErrNotFound}, &stubCatalog{})
	if _, err := svc.Offer(context.Background(), "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
