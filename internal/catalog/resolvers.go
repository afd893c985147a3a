package catalog

import (
	"context"
	"strings"
	"time"

	"aquashop/internal/domain"
	"github.com/rs/zerolog"
)

// PromotionResolver reads the active product_promotions record for (product, variant key).
// Simple products use the "default" variant key; variants use their selector string.
type PromotionResolver struct {
	promotions promotionFinder
	now        func() time.Time
}

func NewPromotionResolver(promotions promotionFinder, now func() time.Time) *PromotionResolver {
	if now == nil {
		now = time.Now
	}
	return &PromotionResolver{promotions: promotions, now: now}
}

func (r *PromotionResolver) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	if r.promotions == nil {
		return nil, nil
	}
	key := domain.DefaultVariantKey
	if !variant.IsZero() {
		key = variant.String()
	}
	now := r.now()
	promo, err := r.promotions.GetActive(ctx, productID, key, now)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if promo == nil || !promo.ActiveAt(now) {
		return nil, nil
	}
	return promo.PriceInfo(), nil
}

// LegacyDiscountResolver reads product-level discount_price / discount_percentage fields.
// It only answers when at least one discount field exists; a zero discount yields the
// undiscounted base price.
type LegacyDiscountResolver struct {
	content ContentReader
	logger  zerolog.Logger
}

func (r *LegacyDiscountResolver) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	if !variant.IsZero() {
		return nil, nil
	}
	keys := productKeys(productID)
	values, err := r.content.GetMany(ctx, []string{
		keys.price, keys.discountPrice, keys.discountPct, keys.ref, keys.discountRef,
	})
	if err != nil {
		return nil, err
	}
	_, hasDiscountPrice := values[keys.discountPrice]
	_, hasDiscountPct := values[keys.discountPct]
	if !hasDiscountPrice && !hasDiscountPct {
		return nil, nil
	}
	base, ok := amountField(values, keys.price, r.logger)
	if !ok {
		r.logger.Debug().Str("product_id", productID).Msg("catalog: discount fields without base price")
		return nil, nil
	}
	return priceFromFields(base, values, keys.discountPrice, keys.discountPct, keys.ref, keys.discountRef, r.logger), nil
}

// BasePriceResolver reads the product-level price field.
type BasePriceResolver struct {
	content ContentReader
	logger  zerolog.Logger
}

func (r *BasePriceResolver) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	if !variant.IsZero() {
		return nil, nil
	}
	keys := productKeys(productID)
	values, err := r.content.GetMany(ctx, []string{keys.price, keys.ref})
	if err != nil {
		return nil, err
	}
	base, ok := amountField(values, keys.price, r.logger)
	if !ok {
		return nil, nil
	}
	return domain.BasePrice(base, strings.TrimSpace(values[keys.ref])), nil
}

// ProductTableResolver falls back to products.price.
type ProductTableResolver struct {
	products productFinder
	content  ContentReader
	logger   zerolog.Logger
}

func (r *ProductTableResolver) Resolve(ctx context.Context, productID string, variant domain.Variant) (*domain.PriceInfo, error) {
	if !variant.IsZero() || r.products == nil {
		return nil, nil
	}
	p, err := r.products.GetByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if p == nil || p.Price == nil || p.Price.IsNegative() {
		return nil, nil
	}
	ref, _, err := r.content.Get(ctx, productKeys(productID).ref)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("product_id", productID).Msg("catalog: price from products table")
	return domain.BasePrice(*p.Price, strings.TrimSpace(ref)), nil
}

type fieldKeys struct {
	price, discountPrice, discountPct, ref, discountRef string
}

func productKeys(productID string) fieldKeys {
	return fieldKeys{
		price:         domain.ProductKey(productID, domain.FieldPrice).String(),
		discountPrice: domain.ProductKey(productID, domain.FieldDiscountPrice).String(),
		discountPct:   domain.ProductKey(productID, domain.FieldDiscountPercentage).String(),
		ref:           domain.ProductKey(productID, domain.FieldStripePriceID).String(),
		discountRef:   domain.ProductKey(productID, domain.FieldStripeDiscountPriceID).String(),
	}
}

func optionKeys(productID string, index int, option string) fieldKeys {
	return fieldKeys{
		price:         domain.OptionKey(productID, index, option, domain.FieldPrice).String(),
		discountPrice: domain.OptionKey(productID, index, option, domain.FieldDiscountPrice).String(),
		discountPct:   domain.OptionKey(productID, index, option, domain.FieldDiscountPercentage).String(),
		ref:           domain.OptionKey(productID, index, option, domain.FieldStripePriceID).String(),
		discountRef:   domain.OptionKey(productID, index, option, domain.FieldStripeDiscountPriceID).String(),
	}
}
