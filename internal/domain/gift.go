package domain

import "github.com/shopspring/decimal"

// GiftSettings names the product added to every non-empty cart while active.
type GiftSettings struct {
	Active    bool   `json:"active"`
	ProductID string `json:"product_id"`
}

// GiftRule adds ProductID once the payable subtotal reaches Threshold.
type GiftRule struct {
	ID        string          `json:"id"`
	Threshold decimal.Decimal `json:"threshold"`
	ProductID string          `json:"product_id"`
}

// SelectGiftRule returns the rule with the highest threshold not above subtotal.
func SelectGiftRule(rules []GiftRule, subtotal decimal.Decimal) *GiftRule {
	var selected *GiftRule
	for _, rule := range rules {
		if rule.ProductID == "" || rule.Threshold.GreaterThan(subtotal) {
			continue
		}
		if selected == nil || rule.Threshold.GreaterThan(selected.Threshold) {
			r := rule
			selected = &r
		}
	}
	return selected
}
