package product

import (
	"context"
	"fmt"

	"aquashop/internal/domain"
	productrepo "aquashop/internal/repository/product"
)

type pricing interface {
	Price(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error)
	StockCeiling(ctx context.Context, productID string, variant domain.Variant) (int, bool, error)
}

// Service serves storefront product reads with their current price.
type Service struct {
	repo    productrepo.Repository
	catalog pricing
}

func New(repo productrepo.Repository, catalog pricing) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Offer is a product with its currently resolved price and stock.
type Offer struct {
	Product domain.Product    `json:"product"`
	Price   *domain.PriceInfo `json:"price"`
	Stock   *int              `json:"stock,omitempty"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Offer returns the product with the price and stock ceiling of variant.
func (s *Service) Offer(ctx context.Context, id string, variant domain.Variant) (*Offer, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := s.Price(ctx, id, variant)
	if err != nil {
		return nil, err
	}
	offer := &Offer{Product: *p, Price: info}
	ceiling, limited, err := s.catalog.StockCeiling(ctx, id, variant)
	if err != nil {
		return nil, fmt.Errorf("resolve stock: %w", err)
	}
	if limited {
		offer.Stock = &ceiling
	}
	return offer, nil
}

// Price resolves the current price. A product no source knows yields ErrPriceNotConfigured.
func (s *Service) Price(ctx context.Context, id string, variant domain.Variant) (*domain.PriceInfo, error) {
	info, err := s.catalog.Price(ctx, id, variant)
	if err != nil {
		return nil, fmt.Errorf("resolve price: %w", err)
	}
	if info == nil {
		return nil, domain.ErrPriceNotConfigured
	}
	return info, nil
}
