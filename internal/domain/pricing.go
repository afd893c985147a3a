package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceInfo is the resolved price of a product or variant.
type PriceInfo struct {
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	PriceRef           string           `json:"stripe_price_id,omitempty"`
	DiscountPriceRef   string           `json:"stripe_discount_price_id,omitempty"`
}

// HasDiscount reports whether both discount fields are set.
func (p PriceInfo) HasDiscount() bool {
	return p.OriginalPrice != nil && p.DiscountPercentage != nil
}

// BasePrice returns an undiscounted PriceInfo.
func BasePrice(price decimal.Decimal, ref string) *PriceInfo {
	return &PriceInfo{Price: price.Round(2), PriceRef: ref}
}

// DiscountedFromPercentage builds a discounted PriceInfo from a base and a percentage.
// A percentage outside (0, 100] yields the undiscounted base.
func DiscountedFromPercentage(base, pct decimal.Decimal, ref, discountRef string) *PriceInfo {
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return BasePrice(base, ref)
	}
	orig := base.Round(2)
	p := pct.Round(2)
	price := orig.Mul(hundred.Sub(p)).Div(hundred).Round(2)
	return &PriceInfo{
		Price:              price,
		OriginalPrice:      &orig,
		DiscountPercentage: &p,
		PriceRef:           ref,
		DiscountPriceRef:   discountRef,
	}
}

// DiscountedFromPrice builds a discounted PriceInfo from a base and a discounted unit price.
// The discounted price is kept as given; the percentage is derived from it for display
// and matches the price only to within cent rounding.
func DiscountedFromPrice(base, discounted decimal.Decimal, ref, discountRef string) *PriceInfo {
	orig := base.Round(2)
	price := discounted.Round(2)
	if !orig.IsPositive() || price.IsNegative() || !price.LessThan(orig) {
		return BasePrice(base, ref)
	}
	pct := hundred.Sub(price.Mul(hundred).Div(orig)).Round(2)
	return &PriceInfo{
		Price:              price,
		OriginalPrice:      &orig,
		DiscountPercentage: &pct,
		PriceRef:           ref,
		DiscountPriceRef:   discountRef,
	}
}

// DefaultVariantKey is the promotion variant sentinel used for products without variants.
const DefaultVariantKey = "default"

// Promotion is an active promotion record for a product (or one variant of it).
type Promotion struct {
	ID                 string
	ProductID          string
	VariantKey         string
	BasePrice          decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	DiscountPriceRef   string
	PriceRef           string
	StartsAt           *time.Time
	EndsAt             *time.Time
}

// ActiveAt reports whether now falls inside the promotion window.
func (p Promotion) ActiveAt(now time.Time) bool {
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// PriceInfo converts the promotion to a resolved price. An amount wins over a percentage.
func (p Promotion) PriceInfo() *PriceInfo {
	if p.DiscountAmount != nil && p.DiscountAmount.IsPositive() {
		return DiscountedFromPrice(p.BasePrice, p.BasePrice.Sub(*p.DiscountAmount), p.PriceRef, p.DiscountPriceRef)
	}
	if p.DiscountPercentage != nil {
		return DiscountedFromPercentage(p.BasePrice, *p.DiscountPercentage, p.PriceRef, p.DiscountPriceRef)
	}
	return BasePrice(p.BasePrice, p.PriceRef)
}
