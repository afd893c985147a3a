package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType distinguishes regular lines from time-limited wheel gifts.
type ItemType string

const (
	ItemTypeRegular   ItemType = "regular"
	ItemTypeWheelGift ItemType = "wheel_gift"
)

// UnknownProductTitle is shown when a product title cannot be resolved.
const UnknownProductTitle = "Produit inconnu"

// CartItem is one line of a cart.
type CartItem struct {
	ID                 string           `json:"id"`
	Quantity           int              `json:"quantity"`
	Price              decimal.Decimal  `json:"price"`
	Title              string           `json:"title"`
	ImageURL           string           `json:"image_url,omitempty"`
	Variant            Variant          `json:"variant,omitempty"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	PriceRef           string           `json:"stripe_price_id,omitempty"`
	DiscountPriceRef   string           `json:"stripe_discount_price_id,omitempty"`
	IsGift             bool             `json:"is_gift,omitempty"`
	ThresholdGift      bool             `json:"threshold_gift,omitempty"`
	Type               ItemType         `json:"type,omitempty"`
	WonAt              *time.Time       `json:"won_at,omitempty"`
	ExpiresAt          *time.Time       `json:"expires_at,omitempty"`
	Category           string           `json:"category,omitempty"`
}

// Payable reports whether the line counts towards totals.
func (i CartItem) Payable() bool {
	return !i.IsGift && !i.ThresholdGift
}

// IsWheelGift reports whether the line is a time-limited wheel gift.
func (i CartItem) IsWheelGift() bool {
	return i.Type == ItemTypeWheelGift
}

// IsDefaultGift reports whether the line is the automatic gift from GiftSettings.
func (i CartItem) IsDefaultGift() bool {
	return i.IsGift && !i.ThresholdGift && !i.IsWheelGift()
}

// Matches reports whether the line is identified by (id, variant).
func (i CartItem) Matches(id string, variant Variant) bool {
	return i.ID == id && i.Variant.Equal(variant)
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ApplyPrice overwrites the pricing fields from a resolved PriceInfo, clearing stale discount data.
func (i *CartItem) ApplyPrice(info PriceInfo) {
	i.Price = info.Price
	i.PriceRef = info.PriceRef
	if info.HasDiscount() {
		orig := *info.OriginalPrice
		pct := *info.DiscountPercentage
		i.OriginalPrice = &orig
		i.DiscountPercentage = &pct
		i.DiscountPriceRef = info.DiscountPriceRef
		return
	}
	i.OriginalPrice = nil
	i.DiscountPercentage = nil
	i.DiscountPriceRef = ""
}

// CartRow is the Item Store representation of a line for one user.
type CartRow struct {
	UserID             string
	ProductID          string
	Quantity           int
	Variant            string
	PriceRef           string
	DiscountPriceRef   string
	OriginalPrice      *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	HasDiscount        bool
	IsGift             bool
	ThresholdGift      bool
	Title              string
	CreatedAt          time.Time

	// Joined from products on read.
	ProductTitle string
	ProductPrice *decimal.Decimal
	ImageURL     string
	Category     string
}

// Totals is the promo-aware breakdown of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}
