package cart

import (
	"context"

	"aquashop/internal/domain"
)

// Repository is the Item Store: durable per-user cart rows.
type Repository interface {
	// ListByUser returns the user's rows joined with product title, price, image and category.
	ListByUser(ctx context.Context, userID string) ([]domain.CartRow, error)
	// Upsert inserts the row or sets the quantity and pricing fields of the existing
	// (user, product, variant) row.
	Upsert(ctx context.Context, row domain.CartRow) error
	UpdateQuantity(ctx context.Context, userID, productID, variant string, quantity int) error
	// DeleteProduct removes every non-gift row of the product for the user.
	DeleteProduct(ctx context.Context, userID, productID string) error
	DeleteByUser(ctx context.Context, userID string) error
	// ReplaceGifts swaps all gift rows of the user for gifts in one transaction.
	ReplaceGifts(ctx context.Context, userID string, gifts []domain.CartRow) error
}
