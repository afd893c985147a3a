package httpserver

import (
	"aquashop/internal/domain"
	"aquashop/internal/service/cart"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	SessionID string                   `json:"session_id"`
	Items     []domain.CartItem        `json:"items"`
	ItemCount int                      `json:"item_count"`
	Totals    domain.Totals            `json:"totals"`
	Promo     *domain.AppliedPromoCode `json:"promo,omitempty"`
	Notices   []cart.Notice            `json:"notices"`
}

type priceResponse struct {
	ProductID          string           `json:"product_id"`
	Variant            string           `json:"variant,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	PriceRef           string           `json:"stripe_price_id,omitempty"`
	DiscountPriceRef   string           `json:"stripe_discount_price_id,omitempty"`
	HasDiscount        bool             `json:"has_discount"`
}

func toCartResponse(m *cart.Manager, notices []cart.Notice) cartResponse {
	items := m.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	count := 0
	for _, item := range items {
		if item.Payable() {
			count += item.Quantity
		}
	}
	if notices == nil {
		notices = []cart.Notice{}
	}
	return cartResponse{
		SessionID: m.Session().ID,
		Items:     items,
		ItemCount: count,
		Totals:    m.TotalWithPromo(),
		Promo:     m.AppliedPromo(),
		Notices:   notices,
	}
}

func toPriceResponse(productID string, variant domain.Variant, info domain.PriceInfo) priceResponse {
	return priceResponse{
		ProductID:          productID,
		Variant:            variant.String(),
		Price:              info.Price,
		OriginalPrice:      info.OriginalPrice,
		DiscountPercentage: info.DiscountPercentage,
		PriceRef:           info.PriceRef,
		DiscountPriceRef:   info.DiscountPriceRef,
		HasDiscount:        info.HasDiscount(),
	}
}
