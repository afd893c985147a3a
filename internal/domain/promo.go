package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type PromoType string

const (
	PromoTypePercentage PromoType = "percentage"
	PromoTypeFixed      PromoType = "fixed"
)

// PromoApplication decides which payable lines a promo code covers.
type PromoApplication string

const (
	PromoApplyAll             PromoApplication = "all"
	PromoApplySpecificProduct PromoApplication = "specific_product"
	PromoApplyCategory        PromoApplication = "category"
)

// AppliedPromoCode is the single promo code currently attached to a cart.
// ValidatedDiscount is the amount granted by the validation endpoint, if it sent one;
// it caps Discount for as long as the code stays applied.
type AppliedPromoCode struct {
	Code              string           `json:"code"`
	Type              PromoType        `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	Discount          decimal.Decimal  `json:"discount"`
	ValidatedDiscount *decimal.Decimal `json:"validated_discount,omitempty"`
	AppliedItems      []string         `json:"applied_items,omitempty"`
	ApplicationType   PromoApplication `json:"application_type"`
	ProductIDs        []string         `json:"product_ids,omitempty"`
	Categories        []string         `json:"categories,omitempty"`
}

// Covers reports whether a payable line is eligible under the application type.
func (p AppliedPromoCode) Covers(item CartItem) bool {
	if !item.Payable() {
		return false
	}
	switch p.ApplicationType {
	case PromoApplySpecificProduct:
		return slices.Contains(p.ProductIDs, item.ID)
	case PromoApplyCategory:
		return item.Category != "" && slices.Contains(p.Categories, item.Category)
	default:
		return true
	}
}

// ComputePromoDiscount returns the discount the code grants on items and the ids it applies to.
// Percentage codes take value% of the eligible subtotal; fixed codes are capped at it.
func ComputePromoDiscount(p AppliedPromoCode, items []CartItem) (decimal.Decimal, []string) {
	eligible := decimal.Zero
	var applied []string
	for _, item := range items {
		if !p.Covers(item) {
			continue
		}
		eligible = eligible.Add(item.LineTotal())
		if !slices.Contains(applied, item.ID) {
			applied = append(applied, item.ID)
		}
	}
	if !eligible.IsPositive() || !p.Value.IsPositive() {
		return decimal.Zero, applied
	}

	switch p.Type {
	case PromoTypePercentage:
		pct := decimal.Min(p.Value, hundred)
		return eligible.Mul(pct).Div(hundred).Round(2), applied
	case PromoTypeFixed:
		return decimal.Min(p.Value, eligible).Round(2), applied
	default:
		return decimal.Zero, applied
	}
}
