package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePromoDiscountPercentageAll(t *testing.T) {
	items := []CartItem{
		{ID: "p1", Quantity: 2, Price: dec("20")},
		{ID: "p2", Quantity: 1, Price: dec("10")},
		{ID: "gift", Quantity: 1, Price: dec("15"), IsGift: true},
	}
	promo := AppliedPromoCode{Code: "EAU10", Type: PromoTypePercentage, Value: dec("10"), ApplicationType: PromoApplyAll}

	discount, applied := ComputePromoDiscount(promo, items)
	assert.True(t, discount.Equal(dec("5")), discount.String())
	assert.Equal(t, []string{"p1", "p2"}, applied)
}

func TestComputePromoDiscountFixedIsCapped(t *testing.T) {
	items := []CartItem{{ID: "p1", Quantity: 1, Price: dec("8"), Category: "filtration"}}
	promo := AppliedPromoCode{Type: PromoTypeFixed, Value: dec("15"), ApplicationType: PromoApplyCategory, Categories: []string{"filtration"}}

	discount, _ := ComputePromoDiscount(promo, items)
	assert.True(t, discount.Equal(dec("8")), discount.String())
}

func TestComputePromoDiscountSpecificProduct(t *testing.T) {
	items := []CartItem{
		{ID: "p1", Quantity: 1, Price: dec("30")},
		{ID: "p2", Quantity: 1, Price: dec("70")},
	}
	promo := AppliedPromoCode{Type: PromoTypePercentage, Value: dec("50"), ApplicationType: PromoApplySpecificProduct, ProductIDs: []string{"p2"}}

	discount, applied := ComputePromoDiscount(promo, items)
	assert.True(t, discount.Equal(dec("35")), discount.String())
	assert.Equal(t, []string{"p2"}, applied)
}

func TestComputePromoDiscountNoEligibleLines(t *testing.T) {
	items := []CartItem{{ID: "p1", Quantity: 1, Price: dec("30"), Category: "decor"}}
	promo := AppliedPromoCode{Type: PromoTypePercentage, Value: dec("10"), ApplicationType: PromoApplyCategory, Categories: []string{"food"}}

	discount, applied := ComputePromoDiscount(promo, items)
	assert.True(t, discount.IsZero())
	assert.Empty(t, applied)
}
