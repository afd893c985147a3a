// Package catalog resolves current prices and stock ceilings for products and variants
// from the content store, active promotions and the products table.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"aquashop/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ContentReader is the read side of the content store.
type ContentReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	FindByPattern(ctx context.Context, pattern string) (map[string]string, error)
}

type promotionFinder interface {
	GetActive(ctx context.Context, productID, variantKey string, now time.Time) (*domain.Promotion, error)
}

type productFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Resolver is one price source. A nil PriceInfo with a nil error means the source knows
// nothing about the product and the next resolver should be tried.
type Resolver interface {
	Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error)

func (f ResolverFunc) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	return f(ctx, productID, variant)
}

// Chain tries resolvers in order and returns the first non-nil price.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	for _, r := range c {
		info, err := r.Resolve(ctx, productID, variant)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, nil
}

// Catalog answers price and stock questions for the cart.
type Catalog struct {
	chain  Chain
	labels *labelIndex
	stock  *StockResolver
}

// New wires the default resolution order:
// active promotion, variant option fields, legacy product discount fields,
// product base price field, then the products table.
func New(content ContentReader, promotions promotionFinder, products productFinder, logger *zerolog.Logger) *Catalog {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	labels := &labelIndex{content: content, logger: l}
	chain := Chain{
		NewPromotionResolver(promotions, time.Now),
		&VariantResolver{content: content, labels: labels, logger: l},
		&LegacyDiscountResolver{content: content, logger: l},
		&BasePriceResolver{content: content, logger: l},
		&ProductTableResolver{products: products, content: content, logger: l},
	}
	return &Catalog{
		chain:  chain,
		labels: labels,
		stock:  &StockResolver{content: content, labels: labels, logger: l},
	}
}

// Price returns the current price of (productID, variant), or nil when no source can price it.
func (c *Catalog) Price(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	return c.chain.Resolve(ctx, productID, variant)
}

// StockCeiling returns the configured stock; limited is false when none is configured.
func (c *Catalog) StockCeiling(ctx context.Context, productID string, variant domain.Variant) (int, bool, error) {
	return c.stock.Ceiling(ctx, productID, variant)
}

// parseAmount reads a decimal content value; "12,50" is accepted.
func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// amountField looks up key in values and parses it; unparseable values count as absent.
func amountField(values map[string]string, key string, logger zerolog.Logger) (d decimal.Decimal, present bool) {
	raw, found := values[key]
	if !found {
		return decimal.Zero, false
	}
	d, ok := parseAmount(raw)
	if !ok {
		logger.Warn().Str("key", key).Str("value", raw).Msg("catalog: unparseable amount")
		return decimal.Zero, false
	}
	return d, true
}

// priceFromFields applies the discount fields on top of base: a positive discount price wins,
// then a positive percentage; anything else yields the base price.
func priceFromFields(base decimal.Decimal, values map[string]string, discountPriceKey, discountPctKey, refKey, discountRefKey string, logger zerolog.Logger) *domain.PriceInfo {
	ref := strings.TrimSpace(values[refKey])
	discountRef := strings.TrimSpace(values[discountRefKey])
	if dp, ok := amountField(values, discountPriceKey, logger); ok && dp.IsPositive() {
		return domain.DiscountedFromPrice(base, dp, ref, discountRef)
	}
	if pct, ok := amountField(values, discountPctKey, logger); ok && pct.IsPositive() {
		return domain.DiscountedFromPercentage(base, pct, ref, discountRef)
	}
	return domain.BasePrice(base, ref)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
