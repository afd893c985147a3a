package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of the products table. Price is nil when the column is NULL.
type Product struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    string           `json:"image_url,omitempty"`
	CategoryKey string           `json:"category,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Amount returns a pointer to a copy of d.
func Amount(d decimal.Decimal) *decimal.Decimal {
	return &d
}
