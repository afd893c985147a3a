package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AbandonedCartStatus tracks a cart through the recovery funnel.
type AbandonedCartStatus string

const (
	AbandonedStatusAbandoned AbandonedCartStatus = "abandoned"
	AbandonedStatusRecovered AbandonedCartStatus = "recovered"
)

// AbandonedCartItem is the payable-line snapshot stored for marketing automation.
type AbandonedCartItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Variant  string          `json:"variant,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
}

// AbandonedCart is keyed by email.
type AbandonedCart struct {
	Email       string
	UserID      string
	Items       []AbandonedCartItem
	Subtotal    decimal.Decimal
	ItemCount   int
	Status      AbandonedCartStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RecoveredAt *time.Time
}
